package main

import (
	"fmt"

	"github.com/trezcool/shule/core/school"
)

// listAudit prints matching audit entries, most recent first.
func (cli *commandLine) listAudit(filter school.AuditFilter) error {
	logs, err := cli.store.AuditLogs(filter)
	if err != nil {
		return err
	}
	for _, l := range logs {
		fmt.Printf("%s  %-20s %-12s %s/%s  %s\n",
			l.Timestamp.Format("2006-01-02 15:04:05"), l.Action, l.UserID, l.EntityType, l.EntityID, l.Details)
	}
	fmt.Printf("%d entries\n", len(logs))
	return nil
}
