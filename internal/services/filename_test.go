package services

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"design doc.pdf", "design_doc.pdf"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\windows\\system32\\cmd.exe", "cmd.exe"},
		{"/tmp/upload.png", "upload.png"},
		{"weird<>:\"|?*.gif", "weird.gif"},
		{"über.png", "ber.png"},
		{"...", ""},
		{"///", ""},
		{"__hidden__", "hidden"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "pdf"},
		{"PHOTO.PNG", "png"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{"trailing.", ""},
	}

	for _, tt := range tests {
		if got := fileExtension(tt.in); got != tt.want {
			t.Errorf("fileExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
