package types

import "time"

// Team is a group of users working on tasks together. Every team has
// exactly one designated leader; membership rows are tracked separately
// from leadership.
type Team struct {
	ID          int       `json:"id" db:"team_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	LeaderID    int       `json:"leader_id" db:"leader_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TeamSummary is the listing projection for a single user: the teams they
// lead or belong to, with a member count.
type TeamSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LeaderName  string `json:"leader_name"`
	MemberCount int    `json:"member_count"`
	IsLeader    bool   `json:"is_leader"`
}

// TeamOverview is the admin listing projection with the aggregated
// member-name list.
type TeamOverview struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LeaderName  string `json:"leader_name"`
	Members     string `json:"members"`
}

// TeamMember is a roster entry for a team detail view.
type TeamMember struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// TeamDetail combines a team with its member roster.
type TeamDetail struct {
	Team    Team         `json:"team"`
	Leader  string       `json:"leader"`
	Members []TeamMember `json:"members"`
}
