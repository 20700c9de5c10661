package commands

import (
	"attendtrack-backend/lib/testutil"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testUsername = "23951A0501"
	testPassword = "secret"
)

func writeConfig(t *testing.T, baseUrl string) string {
	path := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(path, []byte(fmt.Sprintf(`{ base_url: %q }`, baseUrl)), 0600)
	require.NoError(t, err)
	return path
}

// run executes the cli with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegisterSubject(t *testing.T) {
	portal := testutil.NewPortal(t, testUsername, testPassword, testutil.DefaultPages())
	config := writeConfig(t, portal.URL())

	table := []struct {
		name     string
		subject  string
		included []string
		excluded []string
	}{
		{
			name:     "every subject",
			subject:  "",
			included: []string{"Data Structures", "Database Systems", "21 Nov 2025"},
		},
		{
			name:     "one subject",
			subject:  "database systems",
			included: []string{"Database Systems"},
			excluded: []string{"Data Structures", "21 Nov 2025"},
		},
		{
			name:     "typo in subject",
			subject:  "Data Structurs",
			included: []string{"Data Structures", "21 Nov 2025"},
			excluded: []string{"Database Systems"},
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			out, err := run(
				t,
				"register",
				"--config", config,
				"--username", testUsername,
				"--password", testPassword,
				"--subject="+test.subject,
			)
			require.NoError(t, err)
			require.Contains(t, out, "SUBJECT")
			for _, text := range test.included {
				require.Contains(t, out, text)
			}
			for _, text := range test.excluded {
				require.NotContains(t, out, text)
			}
		})
	}
}

func TestMissingCredentials(t *testing.T) {
	portal := testutil.NewPortal(t, testUsername, testPassword, testutil.DefaultPages())

	_, err := run(
		t,
		"latest",
		"--config", writeConfig(t, portal.URL()),
		"--username=",
		"--password=",
	)
	require.ErrorContains(t, err, "missing credentials")
	require.Empty(t, portal.Requests())
}

func TestInvalidCredentials(t *testing.T) {
	portal := testutil.NewPortal(t, testUsername, testPassword, testutil.DefaultPages())

	_, err := run(
		t,
		"academic",
		"--config", writeConfig(t, portal.URL()),
		"--username", testUsername,
		"--password", "wrong",
	)
	require.ErrorContains(t, err, "Invalid Credentials")
	require.Equal(t, []string{"POST /pages/login/checkUser.php"}, portal.Paths())
}
