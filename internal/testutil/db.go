// Package testutil provides database, request and template helpers for
// package tests.
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/system/indexes"
	"github.com/dalemusser/strataimpact/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// TestDBURI is used unless STRATAIMPACT_TEST_MONGO_URI is set.
	TestDBURI = "mongodb://localhost:27017"
	// TestDBName prefixes every per-test database.
	TestDBName = "strataimpact_test"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

func testURI() string {
	if uri := os.Getenv("STRATAIMPACT_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return TestDBURI
}

// sharedClient connects once per test binary. go test runs packages in
// parallel, so the pool is sized for several binaries at a time.
func sharedClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(testURI()).
			SetMaxPoolSize(100).
			SetMinPoolSize(5).
			SetMaxConnIdleTime(30 * time.Second).
			SetServerSelectionTimeout(10 * time.Second)

		client, clientErr = mongo.Connect(ctx, opts)
		if clientErr == nil {
			clientErr = client.Ping(ctx, nil)
		}
	})
	return client, clientErr
}

// SetupTestDB returns an empty database with every collection, validator
// and index in place, the same schema EnsureSchema builds at startup. The
// database is private to the calling test and dropped on cleanup.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := sharedClient()
	if err != nil {
		t.Fatalf("connect to test MongoDB at %s: %v", testURI(), err)
	}

	_, file, _, _ := runtime.Caller(1)
	db := c.Database(dbNameFor(file, t.Name()))

	ctx, cancel := TestContext()
	defer cancel()

	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop stale test database: %v", err)
	}
	// Collections must exist before any transaction touches them.
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("create collections: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("create indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database: %v", err)
		}
	})
	return db
}

// dbNameFor derives a database name from the test's source file and name.
// Two packages may declare tests with the same name, so the file path
// goes into the hash suffix. MongoDB caps database names at 63 bytes.
func dbNameFor(file, testName string) string {
	h := fnv.New32a()
	h.Write([]byte(file))
	h.Write([]byte{0})
	h.Write([]byte(testName))

	readable := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, testName)
	const maxReadable = 63 - len(TestDBName) - 2 - 8
	if len(readable) > maxReadable {
		readable = readable[:maxReadable]
	}
	return fmt.Sprintf("%s_%s_%08x", TestDBName, readable, h.Sum32())
}

// TestContext bounds a test's database calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
