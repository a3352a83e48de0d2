//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"listing_editor/internal/adapters/cms"
	"listing_editor/internal/adapters/events"
	server "listing_editor/internal/adapters/http_server"
	redisad "listing_editor/internal/adapters/redis"
	"listing_editor/internal/app"
	"listing_editor/internal/domain"
	mysqlrepo "listing_editor/internal/storage/mysql"
)

// ---------- helpers ----------

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=listings",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "listings")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// fakeCMS serves propertyTypes in the enveloped shape and 404s everything else.
func fakeCMS(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lookups/propertyTypes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":7,"attributes":{"name":{"en":"Villa","vi":"Biệt Thự"},"publicationState":"published"}},
			{"id":8,"attributes":{"name":"Shophouse","publicationState":"draft"}}
		],"meta":{"pagination":{"page":1,"pageCount":1}}}`))
	})
	mux.HandleFunc("/", http.NotFound)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

// ---------- the test ----------

func TestHTTP_EndToEnd_SyncSubmitRead(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redisad.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	cache := redisad.New(rdb)

	// 1) pull lookups from the CMS into MySQL
	cmsSrv := fakeCMS(t)
	client, err := cms.New(cmsSrv.URL+"/api", "test-key", 50)
	if err != nil {
		t.Fatalf("cms.New: %v", err)
	}
	syncer := app.NewLookupSyncService(client, repo, cache)
	for _, name := range domain.Collections {
		if _, err := syncer.SyncCollection(ctx, name); err != nil {
			t.Fatalf("sync %s: %v", name, err)
		}
	}
	if err := syncer.InvalidateSnapshot(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	// 2) real server over MySQL + Redis
	lookups := app.NewLookupCatalog(repo, cache, time.Minute)
	submit := app.NewSubmitService(repo, lookups, events.Noop{}, cache)
	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Lookups:  lookups,
		Drafts:   app.NewDraftService(redisad.NewDraftStore(rdb), time.Hour, repo, lookups, submit),
		Submit:   submit,
		Listings: app.NewListingQueryService(repo, lookups, cache, time.Minute),
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// 3) submit a listing referencing the synced lookup by id
	res := postJSON(t, ts.URL+"/v1/listings", map[string]any{"state": map[string]any{
		"propertyType":    "7",
		"transactionType": "lease",
		"title":           map[string]any{"en": "Garden Villa", "vi": "Biệt thự vườn"},
		"leasePrice":      "25000000",
		"images":          []string{"a.jpg", "b.jpg"},
	}})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d", res.StatusCode)
	}
	var sub app.Submission
	if err := json.NewDecoder(res.Body).Decode(&sub); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// 4) read it back through the API (and MySQL)
	get, err := http.Get(ts.URL + "/v1/listings/" + sub.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("get status %d", get.StatusCode)
	}
	var l domain.Listing
	if err := json.NewDecoder(get.Body).Decode(&l); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if l.Information.PropertyType != (domain.Bilingual{EN: "Villa", VI: "Biệt Thự"}) {
		t.Fatalf("propertyType not resolved: %+v", l.Information.PropertyType)
	}
	if l.Information.Title.VI != "Biệt thự vườn" || len(l.Media.Images) != 2 {
		t.Fatalf("unexpected listing: %+v", l)
	}

	// 5) the inactive lookup is only offered outside ?active=1
	lk, err := http.Get(ts.URL + "/v1/lookups?active=1")
	if err != nil {
		t.Fatalf("GET lookups: %v", err)
	}
	defer lk.Body.Close()
	var view struct {
		Collections map[string][]struct {
			ID string `json:"id"`
		} `json:"collections"`
	}
	if err := json.NewDecoder(lk.Body).Decode(&view); err != nil {
		t.Fatalf("decode lookups: %v", err)
	}
	if pts := view.Collections[domain.CollectionPropertyTypes]; len(pts) != 1 || pts[0].ID != "7" {
		t.Fatalf("unexpected active property types: %+v", pts)
	}
}
