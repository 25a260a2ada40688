package services

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/teamtrack/apiserver/internal/store"
	"github.com/teamtrack/apiserver/types"
)

// In-memory repository fakes. They mirror the store layer's contract:
// store.ErrNotFound on a miss, store.ErrDuplicate on unique violations,
// and transactional helpers that persist nothing when the upload callback
// fails.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByEmailAndRole(_ context.Context, email, role string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Email == email && u.Role == role })
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) GetByUsernameAndRole(_ context.Context, username, role string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username && u.Role == role })
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, username, status string) error {
	return r.update(username, func(u *types.User) { u.Status = status })
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, username, role string) error {
	return r.update(username, func(u *types.User) { u.Role = role })
}

func (r *fakeUserRepo) List(_ context.Context) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]types.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *fakeUserRepo) find(match func(types.User) bool) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) update(username string, apply func(*types.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Username == username {
			apply(&u)
			r.users[id] = u
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	nextID  int
	teams   map[int]types.Team
	members map[int]map[int]bool
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		nextID:  1,
		teams:   make(map[int]types.Team),
		members: make(map[int]map[int]bool),
	}
}

func (r *fakeTeamRepo) Create(_ context.Context, team types.Team) (types.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team.ID = r.nextID
	r.nextID++
	r.teams[team.ID] = team
	r.members[team.ID] = make(map[int]bool)
	return team, nil
}

func (r *fakeTeamRepo) Get(_ context.Context, id int) (types.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return types.Team{}, store.ErrNotFound
	}
	return team, nil
}

func (r *fakeTeamRepo) GetDetail(_ context.Context, id int) (types.TeamDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return types.TeamDetail{}, store.ErrNotFound
	}
	return types.TeamDetail{Team: team}, nil
}

func (r *fakeTeamRepo) Members(_ context.Context, teamID int) ([]types.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var members []types.TeamMember
	for userID := range r.members[teamID] {
		members = append(members, types.TeamMember{UserID: userID})
	}
	return members, nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[teamID]; !ok {
		return store.ErrNotFound
	}
	r.members[teamID][userID] = true
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[teamID], userID)
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, teamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[teamID]; !ok {
		return store.ErrNotFound
	}
	delete(r.teams, teamID)
	delete(r.members, teamID)
	return nil
}

func (r *fakeTeamRepo) ListForUser(_ context.Context, userID int) ([]types.TeamSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var summaries []types.TeamSummary
	for id, team := range r.teams {
		isLeader := team.LeaderID == userID
		if !isLeader && !r.members[id][userID] {
			continue
		}
		summaries = append(summaries, types.TeamSummary{
			ID:          team.ID,
			Name:        team.Name,
			Description: team.Description,
			IsLeader:    isLeader,
			MemberCount: len(r.members[id]),
		})
	}
	return summaries, nil
}

func (r *fakeTeamRepo) ListAll(_ context.Context) ([]types.TeamOverview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var overviews []types.TeamOverview
	for _, team := range r.teams {
		overviews = append(overviews, types.TeamOverview{
			ID:          team.ID,
			Name:        team.Name,
			Description: team.Description,
		})
	}
	return overviews, nil
}

type fakeTaskRepo struct {
	mu        sync.Mutex
	nextID    int
	tasks     map[int]types.Task
	fileKeys  map[int][]string
	deadlines []types.Deadline
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		nextID:   1,
		tasks:    make(map[int]types.Task),
		fileKeys: make(map[int][]string),
	}
}

func (r *fakeTaskRepo) Create(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	r.nextID++
	r.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) Get(_ context.Context, id int) (types.TaskDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return types.TaskDetail{}, store.ErrNotFound
	}
	return types.TaskDetail{Task: task}, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task types.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok {
		return store.ErrNotFound
	}
	task.CreatedBy = existing.CreatedBy
	task.AssignedTo = existing.AssignedTo
	task.TeamID = existing.TeamID
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, id int, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	task.Status = status
	r.tasks[id] = task
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return nil, store.ErrNotFound
	}
	delete(r.tasks, id)
	keys := r.fileKeys[id]
	delete(r.fileKeys, id)
	return keys, nil
}

func (r *fakeTaskRepo) ListForTeam(_ context.Context, teamID int) ([]types.TaskDetail, error) {
	return r.list(func(t types.Task) bool { return t.TeamID == teamID })
}

func (r *fakeTaskRepo) ListForAssignee(_ context.Context, userID int) ([]types.TaskDetail, error) {
	return r.list(func(t types.Task) bool { return t.AssignedTo == userID })
}

func (r *fakeTaskRepo) ListForLeader(_ context.Context, leaderID int) ([]types.TaskDetail, error) {
	return r.list(func(t types.Task) bool { return t.CreatedBy == leaderID })
}

func (r *fakeTaskRepo) ListAll(_ context.Context) ([]types.TaskDetail, error) {
	return r.list(func(types.Task) bool { return true })
}

func (r *fakeTaskRepo) DeadlinesForAssignee(_ context.Context, _ int) ([]types.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deadlines, nil
}

func (r *fakeTaskRepo) list(match func(types.Task) bool) ([]types.TaskDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var details []types.TaskDetail
	for _, t := range r.tasks {
		if match(t) {
			details = append(details, types.TaskDetail{Task: t})
		}
	}
	return details, nil
}

type fakeCommentRepo struct {
	mu            sync.Mutex
	nextID        int
	comments      map[int]types.Comment
	attachments   *fakeAttachmentRepo
	notifications []types.CommentNotification
}

func newFakeCommentRepo(attachments *fakeAttachmentRepo) *fakeCommentRepo {
	return &fakeCommentRepo{
		nextID:      1,
		comments:    make(map[int]types.Comment),
		attachments: attachments,
	}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment types.Comment) (types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.nextID
	r.nextID++
	r.comments[comment.ID] = comment
	return comment, nil
}

func (r *fakeCommentRepo) CreateWithAttachment(ctx context.Context, comment types.Comment, attachment types.Attachment, upload func(ctx context.Context) error) (types.Comment, types.Attachment, error) {
	// Run the upload first, like the real transaction does before
	// commit. On failure nothing is persisted.
	if err := upload(ctx); err != nil {
		return types.Comment{}, types.Attachment{}, err
	}
	created, err := r.Create(ctx, comment)
	if err != nil {
		return types.Comment{}, types.Attachment{}, err
	}
	attachment.CommentID = &created.ID
	storedAttachment, err := r.attachments.store(attachment)
	if err != nil {
		return types.Comment{}, types.Attachment{}, err
	}
	return created, storedAttachment, nil
}

func (r *fakeCommentRepo) ListForTask(_ context.Context, taskID int) ([]types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var comments []types.Comment
	for _, c := range r.comments {
		if c.TaskID == taskID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (r *fakeCommentRepo) RecentForAssignee(_ context.Context, _, _ int) ([]types.CommentNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifications, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	nextID      int
	attachments map[int]types.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{nextID: 1, attachments: make(map[int]types.Attachment)}
}

func (r *fakeAttachmentRepo) CreateWithUpload(ctx context.Context, attachment types.Attachment, upload func(ctx context.Context) error) (types.Attachment, error) {
	if err := upload(ctx); err != nil {
		return types.Attachment{}, err
	}
	return r.store(attachment)
}

func (r *fakeAttachmentRepo) ListForTask(_ context.Context, taskID int) ([]types.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var attachments []types.Attachment
	for _, a := range r.attachments {
		if a.TaskID == taskID {
			attachments = append(attachments, a)
		}
	}
	return attachments, nil
}

func (r *fakeAttachmentRepo) store(attachment types.Attachment) (types.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment.ID = r.nextID
	r.nextID++
	r.attachments[attachment.ID] = attachment
	return attachment, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) EnsureBucket(context.Context) error { return nil }

func (s *fakeStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) Bucket() string { return "test-bucket" }
