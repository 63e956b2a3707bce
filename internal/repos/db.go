package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	// Demo data; idempotent, safe to run every start. Users first, cars
	// reference their owner.
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates all tables and indexes. Also used by tests against
// in-memory databases.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Cars
CREATE TABLE IF NOT EXISTS cars(
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL,
  price_per_day NUMERIC NOT NULL CHECK (price_per_day >= 0),
  available INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_cars_owner    ON cars(owner_id);
CREATE INDEX IF NOT EXISTS idx_cars_location ON cars(LOWER(location));

-- Bookings. start_date inclusive, end_date exclusive, both YYYY-MM-DD so
-- string comparison is date comparison.
CREATE TABLE IF NOT EXISTS bookings(
  id TEXT PRIMARY KEY,
  car_id TEXT NOT NULL REFERENCES cars(id) ON DELETE CASCADE,
  renter_id TEXT NOT NULL REFERENCES users(id),
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  pickup_time TEXT NOT NULL DEFAULT '',
  return_time TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'PENDING'
    CHECK (status IN ('PENDING','CONFIRMED','CANCELLED','COMPLETED')),
  total_amount NUMERIC NOT NULL CHECK (total_amount >= 0),
  payment_status TEXT NOT NULL DEFAULT 'UNPAID',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  CHECK (start_date < end_date)
);
CREATE INDEX IF NOT EXISTS idx_bookings_car_status ON bookings(car_id, status);
CREATE INDEX IF NOT EXISTS idx_bookings_renter     ON bookings(renter_id);

-- Conversations & Messages
CREATE TABLE IF NOT EXISTS conversations(
  id TEXT PRIMARY KEY,
  car_id TEXT NOT NULL REFERENCES cars(id) ON DELETE CASCADE,
  renter_id TEXT NOT NULL REFERENCES users(id),
  owner_id TEXT NOT NULL REFERENCES users(id),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(car_id, renter_id)
);

CREATE TABLE IF NOT EXISTS messages(
  id TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
  sender_id TEXT NOT NULL REFERENCES users(id),
  body TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);

-- Reviews
CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  car_id TEXT NOT NULL REFERENCES cars(id) ON DELETE CASCADE,
  author_id TEXT NOT NULL REFERENCES users(id),
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(car_id, author_id)
);
CREATE INDEX IF NOT EXISTS idx_reviews_car ON reviews(car_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM cars`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo cars")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO cars(id,owner_id,title,description,location,price_per_day,available) VALUES
	  ('car-civic-01','u-owner','Honda Civic 2019','Reliable compact, great mileage.','College Park',45.00,1),
	  ('car-model3-01','u-owner','Tesla Model 3','Long range, autopilot.','Washington',89.00,1),
	  ('car-wrangler-01','u-owner','Jeep Wrangler','4x4, soft top, fits five.','Baltimore',75.00,1)`)

	return tx.Commit()
}

// seedUsers ensures demo accounts exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-owner", "owner@driveshare.test", "Olive Owner", "USER", "Passw0rd!"),
		mk("u-renter", "renter@driveshare.test", "Ravi Renter", "USER", "Passw0rd!"),
		mk("u-admin", "admin@driveshare.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
