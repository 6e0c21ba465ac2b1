package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Add logout", "add-logout"},
		{"Fix: Bug #123!", "fix-bug-123"},
		{"  Leading and   trailing  ", "leading-and-trailing"},
		{"Résumé upload", "resume-upload"},
		{"already-hyphenated -- title", "already-hyphenated-title"},
		{"add\u00a0logout", "add-logout"},
		{"add\u2003new\u3000logout", "add-new-logout"},
		{"로그아웃 추가", ""},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.title, MaxSlugLength))
		})
	}
}

func TestSanitize_Length(t *testing.T) {
	title := strings.Repeat("word ", 30)

	got := Sanitize(title, MaxSlugLength)
	assert.LessOrEqual(t, len(got), MaxSlugLength)
	assert.False(t, strings.HasSuffix(got, "-"))

	assert.Equal(t, "word-word", Sanitize(title, 10))
	// Out-of-range limits fall back to the maximum.
	assert.Equal(t, got, Sanitize(title, 500))
	assert.Equal(t, got, Sanitize(title, 0))
}

func TestSanitize_Properties(t *testing.T) {
	titles := []string{
		"Add logout", "Über große Änderung", "feat: (scope) do things!", "a-b_c.d/e",
		"  -leading hyphen", "trailing hyphen-  ", "日本語 mixed text 123",
	}
	for _, title := range titles {
		got := Sanitize(title, MaxSlugLength)
		assert.Equal(t, got, Sanitize(title, MaxSlugLength), "deterministic for %q", title)
		assert.Regexp(t, `^[a-z0-9-]*$`, got)
		assert.False(t, strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-"), "dangling hyphen in %q", got)
		assert.True(t, ValidBranchName(BranchName("VTM-1", 1, title, MaxSlugLength)))
	}
}

func TestBranchName(t *testing.T) {
	assert.Equal(t, "vtm-1/342-add-logout", BranchName("VTM-1", 342, "Add logout", MaxSlugLength))
	assert.Equal(t, "1372/305", BranchName("1372", 305, "???", MaxSlugLength))
	assert.Equal(t, "vtm-1372/9-fix", BranchName(" VTM-1372 ", 9, "Fix", MaxSlugLength))
}

func TestValidBranchName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"VTM-1372/342-add-feature", true},
		{"1372/305", true},
		{"vtm-1/42-add-logout", true},
		{"team/sub/12", true},
		{"342-feature", false},
		{"VTM-1372-342", false},
		{"VTM-1372/add-feature", false},
		{"/342", false},
		{"", false},
		{"vtm 1/7-add-logout", false},
		{"vtm-1/7..8", false},
		{"vtm-1/7-fix.lock", false},
		{"-vtm/7", false},
		{".vtm/7", false},
		{"vtm-1/7-", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidBranchName(tt.name))
		})
	}
}

func TestValidateBranchName(t *testing.T) {
	assert.NoError(t, ValidateBranchName("1372/305"))

	err := ValidateBranchName("342-feature")
	assert.ErrorContains(t, err, "{issue-code}/{issue-id}")
}

func TestValidateIssueCode(t *testing.T) {
	for _, code := range []string{"VTM-1372", "1372", "team/VTM-1"} {
		assert.NoError(t, ValidateIssueCode(code), code)
	}

	for _, code := range []string{"", "VTM 1", "VTM:1", "VTM..1", "-VTM", ".vtm", "vtm.lock", "vtm@{1}"} {
		err := ValidateIssueCode(code)
		assert.True(t, glerrors.IsPrecondition(err), "code %q: err = %v", code, err)
	}
}

func TestIssueIDFromBranch(t *testing.T) {
	iid, ok := IssueIDFromBranch("VTM-1372/342-add-feature")
	assert.True(t, ok)
	assert.Equal(t, 342, iid)

	iid, ok = IssueIDFromBranch("1372/305")
	assert.True(t, ok)
	assert.Equal(t, 305, iid)

	_, ok = IssueIDFromBranch("main")
	assert.False(t, ok)
}
