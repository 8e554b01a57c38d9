package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is the database/sql driver registered with a REGEXP function.
const SQLiteDriverName = "sqlite3_inkwell"

const maxCachedPatterns = 256

var (
	registerOnce sync.Once

	regexMu    sync.Mutex
	regexCache = make(map[string]*regexp.Regexp)
)

// registerSQLiteDriver installs a sqlite3 driver whose connections support
// "x REGEXP pattern". Matching is case-insensitive and unanchored.
func registerSQLiteDriver() {
	registerOnce.Do(func() {
		sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("regexp", sqliteRegexp, true)
			},
		})
	})
}

func sqliteRegexp(pattern, value string) (bool, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

// compilePattern is called once per row, so compiled patterns are kept.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	regexMu.Lock()
	defer regexMu.Unlock()

	if re, ok := regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression: %w", err)
	}
	if len(regexCache) >= maxCachedPatterns {
		regexCache = make(map[string]*regexp.Regexp)
	}
	regexCache[pattern] = re
	return re, nil
}

// OpenSQLite opens a SQLite database at dsn (":memory:" for tests).
func OpenSQLite(dsn string) (*gorm.DB, error) {
	registerSQLiteDriver()
	return gorm.Open(sqlite.New(sqlite.Config{
		DriverName: SQLiteDriverName,
		DSN:        dsn,
	}), gormConfig())
}

// OpenTestSQLite opens a migrated, private in-memory database.
func OpenTestSQLite() (*gorm.DB, error) {
	db, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	if err := configurePool(db); err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
