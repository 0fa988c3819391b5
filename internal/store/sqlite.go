package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already exists")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE NOT NULL,
        telephone TEXT,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS user_agents (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        assistant_id TEXT UNIQUE NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS user_phones (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        phone_id TEXT UNIQUE NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) CreateUser(email, telephone, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (email, telephone, password_hash) VALUES (?, ?, ?)", email, telephone, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(id)
}

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, email, telephone, password_hash, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Email, &user.Telephone, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, email, telephone, password_hash, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Email, &user.Telephone, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// AgentRecord methods
func (s *SQLiteStore) InsertAgentRecord(userID int64, assistantID string) (*AgentRecord, error) {
	rec := AgentRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		AssistantID: assistantID,
		CreatedAt:   time.Now(),
	}

	stmt, err := s.db.Prepare("INSERT INTO user_agents (id, user_id, assistant_id, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare agent record insert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(rec.ID, rec.UserID, rec.AssistantID, rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to execute agent record insert: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) AgentRecordsByUser(userID int64) ([]AgentRecord, error) {
	rows, err := s.db.Query("SELECT id, user_id, assistant_id, created_at FROM user_agents WHERE user_id = ? ORDER BY created_at ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent records: %w", err)
	}
	defer rows.Close()

	var records []AgentRecord
	for rows.Next() {
		var rec AgentRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AssistantID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent record row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteAgentRecordByAssistantID removes the local record for a remote
// assistant id and reports how many rows went away (0 or 1, the column
// is unique).
func (s *SQLiteStore) DeleteAgentRecordByAssistantID(assistantID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM user_agents WHERE assistant_id = ?", assistantID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete agent record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// PhoneRecord methods
func (s *SQLiteStore) InsertPhoneRecord(userID int64, phoneID string) (*PhoneRecord, error) {
	rec := PhoneRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		PhoneID:   phoneID,
		CreatedAt: time.Now(),
	}

	stmt, err := s.db.Prepare("INSERT INTO user_phones (id, user_id, phone_id, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare phone record insert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(rec.ID, rec.UserID, rec.PhoneID, rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to execute phone record insert: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) PhoneRecordsByUser(userID int64) ([]PhoneRecord, error) {
	rows, err := s.db.Query("SELECT id, user_id, phone_id, created_at FROM user_phones WHERE user_id = ? ORDER BY created_at ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query phone records: %w", err)
	}
	defer rows.Close()

	var records []PhoneRecord
	for rows.Next() {
		var rec PhoneRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.PhoneID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan phone record row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
