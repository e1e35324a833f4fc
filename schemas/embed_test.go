package schemas

import (
	"io/fs"
	"path"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upMigrations(t *testing.T) string {
	t.Helper()

	files, err := fs.Glob(Migrations, path.Join(MigrationsDirectory, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var all strings.Builder
	for _, file := range files {
		content, err := fs.ReadFile(Migrations, file)
		require.NoError(t, err)
		all.Write(content)
		all.WriteString("\n")
	}
	return all.String()
}

func TestMigrations_HaveDownFiles(t *testing.T) {
	ups, err := fs.Glob(Migrations, path.Join(MigrationsDirectory, "*.up.sql"))
	require.NoError(t, err)
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(Migrations, down)
		assert.NoError(t, err, down)
	}
}

// Labels and setup fields are written by the model or the reader without a length limit.
func TestMigrations_UnboundedTextColumns(t *testing.T) {
	schema := upMigrations(t)

	tests := []struct {
		table  string
		column string
	}{
		{table: "story_turns", column: "choice_made"},
		{table: "story_turns", column: "narrative"},
		{table: "stories", column: "prompt"},
		{table: "stories", column: "genre"},
		{table: "stories", column: "mood"},
	}
	for _, tt := range tests {
		t.Run(tt.table+"."+tt.column, func(t *testing.T) {
			definitions := regexp.MustCompile(`(?m)\b` + tt.column + `\s+(\w+)`).FindAllStringSubmatch(schema, -1)
			require.NotEmpty(t, definitions)
			last := definitions[len(definitions)-1]
			assert.Equal(t, "TEXT", last[1])
		})
	}
}
