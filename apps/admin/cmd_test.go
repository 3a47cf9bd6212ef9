package main

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) *commandLine {
	store, _ := testutil.NewStore(t)
	return &commandLine{store: store}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
				}
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if tt.wantErrStr != "" {
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			} else {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-name", "A", "-email", "a@b.cd"}, wantErr: errHelp},
		{name: "flags but no password", args: []string{"adduser", "-name", "A", "-email", "a@b.cd", "-role", "teacher"}, wantErr: errHelp},
		{name: "create", args: []string{"adduser", "-name", "New Teacher", "-email", "new@teacher.edu", "-role", "teacher"}, extra: extra{pwd: "s3cret"}},
		{name: "duplicate email", args: []string{"adduser", "-name", "New Teacher", "-email", "new@teacher.edu", "-role", "teacher"}, extra: extra{pwd: "s3cret"}, wantErrStr: school.ErrEmailExists.Error()},
	}
	runCLITests(t, cli, tests)

	res, err := cli.store.Authenticate("new@teacher.edu", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	if !res.Success {
		t.Errorf("created user cannot log in: %s", res.Message)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, cli.store, "User", "awe@test.cd", "mdr", school.RoleTeacher, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: school.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lmao"}},
		{name: "email is case-insensitive", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: extra{pwd: "rofl"}},
	}
	runCLITests(t, cli, tests)

	refreshed, err := cli.store.UserByID(usr.ID)
	if err != nil {
		t.Fatalf("UserByID() failed: %v", err)
	}
	if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
		t.Error("failed to update new password")
	}
	if err = refreshed.CheckPassword("rofl"); err != nil {
		t.Errorf("CheckPassword() failed after reset: %v", err)
	}
}

func Test_commandLine_seedAndReset(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "seed is idempotent", args: []string{"seed"}},
		{name: "reset", args: []string{"reset"}},
	}
	runCLITests(t, cli, tests)

	users, err := cli.store.Users()
	if err != nil {
		t.Fatalf("Users() failed: %v", err)
	}
	if len(users) != 5 {
		t.Errorf("got %d users after reset; want the 5 seeded accounts", len(users))
	}
}

func Test_commandLine_audit(t *testing.T) {
	cli := setup(t)

	if _, err := cli.store.Authenticate("rahul@student.edu", "password123"); err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}

	tests := []cliTest{
		{name: "all entries", args: []string{"audit"}},
		{name: "filtered", args: []string{"audit", "-action", "login_success", "-entity", "User"}},
		{name: "no matches", args: []string{"audit", "-user", "nobody"}},
	}
	runCLITests(t, cli, tests)
}
