package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSessionManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	account := &Account{
		Name:         "testaccount",
		Cookie:       "LOGIN_STATUS=1;sessionid=test_session_id_12345",
		MsToken:      "test_ms_token_67890",
		UserAgent:    "TestAgent/1.0",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("testaccount")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Name != account.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, account.Name)
	}
	if retrieved.Cookie != account.Cookie {
		t.Errorf("Cookie mismatch: got %s, want %s", retrieved.Cookie, account.Cookie)
	}
	if retrieved.MsToken != account.MsToken {
		t.Errorf("MsToken mismatch: got %s, want %s", retrieved.MsToken, account.MsToken)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	// Test sanitization
	sanitized := SanitizeAccount(account)
	if sanitized.Cookie == account.Cookie {
		t.Error("Cookie should be masked")
	}
	if sanitized.MsToken == account.MsToken {
		t.Error("MsToken should be masked")
	}
	if sanitized.Name != account.Name {
		t.Error("Name should not be masked")
	}

	err = manager.Delete("testaccount")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	// Verify deletion
	_, err = manager.Retrieve("testaccount")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestStoreRejectsIncompleteAccount(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{Cookie: "sessionid=abc"}); err == nil {
		t.Error("Expected error storing account without a name")
	}
	if err := manager.Store(&Account{Name: "noncookie"}); err == nil {
		t.Error("Expected error storing account without a cookie")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_sessions.enc")

	os.Setenv("DOUYIN_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("DOUYIN_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Name:    "encrypted_account",
		Cookie:  "sessionid=encrypted_session_cookie",
		MsToken: "encrypted_ms_token",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_account")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Cookie != account.Cookie {
		t.Errorf("Cookie mismatch after encryption/decryption")
	}

	// Verify the file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(fileContent, []byte("encrypted_session_cookie")) {
		t.Error("File contains plaintext cookie")
	}
	if bytes.Contains(fileContent, []byte("encrypted_ms_token")) {
		t.Error("File contains plaintext msToken")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("DOUYIN_COOKIE", "sessionid=env_session")
	os.Setenv("DOUYIN_MS_TOKEN", "env_ms_token")
	defer os.Unsetenv("DOUYIN_COOKIE")
	defer os.Unsetenv("DOUYIN_MS_TOKEN")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if account.Cookie != "sessionid=env_session" {
		t.Errorf("Cookie mismatch: got %s, want sessionid=env_session", account.Cookie)
	}
	if account.MsToken != "env_ms_token" {
		t.Errorf("MsToken mismatch: got %s, want env_ms_token", account.MsToken)
	}
	if account.Name != "default" {
		t.Errorf("Name mismatch: got %s, want default", account.Name)
	}

	// Writes are not supported
	err = store.Store(&Account{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	os.Setenv("DOUYIN_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("DOUYIN_PASSPHRASE")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "sessions.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	account := &Account{
		Name:         "realaccount",
		Cookie:       "sessionid=real_session_cookie",
		MsToken:      "real_ms_token",
		UserAgent:    "RealAgent/1.0",
		LastModified: time.Now(),
	}

	err = manager.Store(account)
	if err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	retrieved, err := manager.Retrieve("realaccount")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Name != account.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, account.Name)
	}
	if retrieved.Cookie != account.Cookie {
		t.Errorf("Cookie mismatch: got %s, want %s", retrieved.Cookie, account.Cookie)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	account := &Account{
		Name:   "mockaccount",
		Cookie: "sessionid=mock_session",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	if !store.Exists("mockaccount") {
		t.Error("Account should exist")
	}

	// Test error injection
	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
