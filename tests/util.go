package testutil

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	logsvc "github.com/trezcool/shule/services/logger"
	inmemkv "github.com/trezcool/shule/storage/kv/inmem"
)

// NewConfig returns the fixed test configuration; no env files are read.
func NewConfig() *core.Config {
	return &core.Config{
		Debug:            true,
		TestMode:         true,
		Env:              "test",
		AppName:          "shule",
		DataKey:          "sms_data_v1",
		SessionKey:       "sms_session",
		ActivityKey:      "sms_last_activity",
		SessionTimeout:   20 * time.Minute,
		SessionTick:      time.Minute,
		NoticePreviewLen: 100,
	}
}

func NewLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

// NewStore returns a seeded store over fresh in-memory storage.
func NewStore(t *testing.T) (*school.Store, *inmemkv.Storage) {
	storage := inmemkv.NewStorage()
	store := school.NewStore(NewConfig(), storage, NewLogger())
	if err := store.Initialize(); err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	return store, storage
}

// CreateUser persists a user through the store, failing the test on error.
func CreateUser(t *testing.T, store *school.Store, name, email, pwd, role string, isActive bool) school.User {
	usr, err := store.CreateUser(school.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
		IsActive: isActive,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
