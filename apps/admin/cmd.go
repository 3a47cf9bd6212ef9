package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/shule/core/school"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	store *school.Store
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  seed - seed the snapshot if the storage is empty")
	fmt.Println("  reset - discard the snapshot and reseed it")
	fmt.Println("  adduser -name NAME -email EMAIL -role ROLE - create a user; the password will be prompted")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password")
	fmt.Println("  audit [-user ID] [-action ACTION] [-entity TYPE] - list audit log entries")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "", "One of: student, parent, teacher, admin.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	auditCmd := flag.NewFlagSet("audit", flag.ExitOnError)
	auditUser := auditCmd.String("user", "", "Only entries by this user id.")
	auditAction := auditCmd.String("action", "", "Only entries with this action.")
	auditEntity := auditCmd.String("entity", "", "Only entries for this entity type.")

	switch args[1] {
	case "seed":
		return cli.store.Initialize()
	case "reset":
		return cli.store.Reset()
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if errors.Is(err, errHelp) {
				addUserCmd.Usage()
			}
			return err
		}
		return cli.addUser(*addUserName, *addUserEmail, *addUserRole, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if errors.Is(err, errHelp) {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "audit":
		if err := auditCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listAudit(school.AuditFilter{
			UserID:     *auditUser,
			Action:     *auditAction,
			EntityType: *auditEntity,
		})
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
