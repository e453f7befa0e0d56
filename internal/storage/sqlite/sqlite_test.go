package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/controllers-api/internal/config"
	"github.com/aanand-mishra/controllers-api/internal/importer"
	"github.com/aanand-mishra/controllers-api/internal/storage"
	"github.com/aanand-mishra/controllers-api/internal/types"
)

var _ storage.Storage = (*SQLite)(nil)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()

	cfg := &config.Config{StoragePath: filepath.Join(t.TempDir(), "data", "test.db")}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func count(t *testing.T, db *SQLite) int {
	t.Helper()
	all, err := db.GetControllers()
	if err != nil {
		t.Fatalf("GetControllers() error = %v", err)
	}
	return len(all)
}

func TestCreateAndGet(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateController(types.Controller{
		FullName:      "Ali Hassan",
		BirthDate:     "1990-01-02",
		LicenseNumber: "L-1",
		Qualification: "ATC",
		Workplace:     "Baghdad",
	})
	if err != nil {
		t.Fatalf("CreateController() error = %v", err)
	}
	if id <= 0 {
		t.Fatalf("CreateController() id = %d, want positive", id)
	}

	got, err := db.GetControllerByID(id)
	if err != nil {
		t.Fatalf("GetControllerByID() error = %v", err)
	}
	if got.FullName != "Ali Hassan" || got.LicenseNumber != "L-1" || got.Workplace != "Baghdad" {
		t.Errorf("GetControllerByID() = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestCreate_MissingName(t *testing.T) {
	db := newTestDB(t)

	for _, name := range []string{"", "   "} {
		_, err := db.CreateController(types.Controller{FullName: name, LicenseNumber: "L-1"})
		if !errors.Is(err, storage.ErrMissingFullName) {
			t.Errorf("CreateController(%q) error = %v, want ErrMissingFullName", name, err)
		}
	}
	if n := count(t, db); n != 0 {
		t.Errorf("row count = %d, want 0", n)
	}
}

func TestGetControllers_InsertionOrder(t *testing.T) {
	db := newTestDB(t)

	if all, err := db.GetControllers(); err != nil || all == nil || len(all) != 0 {
		t.Fatalf("GetControllers() on empty db = %v, %v; want empty non-nil slice", all, err)
	}

	for _, name := range []string{"C", "A", "B"} {
		if _, err := db.CreateController(types.Controller{FullName: name}); err != nil {
			t.Fatalf("CreateController(%q) error = %v", name, err)
		}
	}

	all, err := db.GetControllers()
	if err != nil {
		t.Fatalf("GetControllers() error = %v", err)
	}
	var names string
	for _, c := range all {
		names += c.FullName
	}
	if names != "CAB" {
		t.Errorf("order = %q, want %q", names, "CAB")
	}
}

func TestGetControllerByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetControllerByID(99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetControllerByID() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateControllerByID(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateController(types.Controller{FullName: "Ali"})
	if err != nil {
		t.Fatalf("CreateController() error = %v", err)
	}

	ok, err := db.UpdateControllerByID(id, types.Controller{FullName: "Ali H.", Workplace: "Erbil"})
	if err != nil || !ok {
		t.Fatalf("UpdateControllerByID() = %v, %v; want true, nil", ok, err)
	}

	got, err := db.GetControllerByID(id)
	if err != nil {
		t.Fatalf("GetControllerByID() error = %v", err)
	}
	if got.FullName != "Ali H." || got.Workplace != "Erbil" {
		t.Errorf("after update = %+v", got)
	}

	ok, err = db.UpdateControllerByID(id+100, types.Controller{FullName: "Ghost"})
	if err != nil || ok {
		t.Errorf("UpdateControllerByID(unknown) = %v, %v; want false, nil", ok, err)
	}
	if n := count(t, db); n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}

	if _, err := db.UpdateControllerByID(id, types.Controller{}); !errors.Is(err, storage.ErrMissingFullName) {
		t.Errorf("UpdateControllerByID(no name) error = %v, want ErrMissingFullName", err)
	}
}

func TestDeleteControllerByID(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateController(types.Controller{FullName: "Ali"})
	if err != nil {
		t.Fatalf("CreateController() error = %v", err)
	}

	ok, err := db.DeleteControllerByID(id + 1)
	if err != nil || ok {
		t.Errorf("DeleteControllerByID(unknown) = %v, %v; want false, nil", ok, err)
	}
	if n := count(t, db); n != 1 {
		t.Errorf("row count after unknown delete = %d, want 1", n)
	}

	ok, err = db.DeleteControllerByID(id)
	if err != nil || !ok {
		t.Errorf("DeleteControllerByID() = %v, %v; want true, nil", ok, err)
	}
	if n := count(t, db); n != 0 {
		t.Errorf("row count = %d, want 0", n)
	}
}

func TestUpsertController_NaturalKey(t *testing.T) {
	db := newTestDB(t)

	first, err := db.UpsertController(types.Controller{FullName: "Ali", LicenseNumber: "L1"})
	if err != nil {
		t.Fatalf("UpsertController() error = %v", err)
	}

	// Same license, different name: the licensed row is replaced in place.
	second, err := db.UpsertController(types.Controller{FullName: "Sara", LicenseNumber: "L1", Workplace: "Basra"})
	if err != nil {
		t.Fatalf("UpsertController() error = %v", err)
	}
	if second != first {
		t.Errorf("id changed on upsert: %d -> %d", first, second)
	}

	got, err := db.GetControllerByID(first)
	if err != nil {
		t.Fatalf("GetControllerByID() error = %v", err)
	}
	if got.FullName != "Sara" || got.Workplace != "Basra" {
		t.Errorf("after upsert = %+v", got)
	}

	// Without a license, the name is the key among unlicensed rows only.
	third, err := db.UpsertController(types.Controller{FullName: "Sara"})
	if err != nil {
		t.Fatalf("UpsertController() error = %v", err)
	}
	if third == first {
		t.Error("unlicensed upsert matched a licensed row")
	}
	fourth, err := db.UpsertController(types.Controller{FullName: "Sara", Qualification: "APP"})
	if err != nil {
		t.Fatalf("UpsertController() error = %v", err)
	}
	if fourth != third {
		t.Errorf("unlicensed upsert id = %d, want %d", fourth, third)
	}

	if n := count(t, db); n != 2 {
		t.Errorf("row count = %d, want 2", n)
	}

	if _, err := db.UpsertController(types.Controller{LicenseNumber: "L9"}); !errors.Is(err, storage.ErrMissingFullName) {
		t.Errorf("UpsertController(no name) error = %v, want ErrMissingFullName", err)
	}
}

func TestUpsertController_Idempotent(t *testing.T) {
	db := newTestDB(t)

	c := types.Controller{FullName: "Ali", LicenseNumber: "L1", BirthDate: "1990"}
	id, err := db.UpsertController(c)
	if err != nil {
		t.Fatalf("UpsertController() error = %v", err)
	}
	before, err := db.GetControllerByID(id)
	if err != nil {
		t.Fatalf("GetControllerByID() error = %v", err)
	}

	again, err := db.UpsertController(c)
	if err != nil {
		t.Fatalf("UpsertController() error = %v", err)
	}
	after, err := db.GetControllerByID(again)
	if err != nil {
		t.Fatalf("GetControllerByID() error = %v", err)
	}

	if again != id {
		t.Errorf("id = %d, want %d", again, id)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) || after.FullName != before.FullName {
		t.Errorf("row changed on identical upsert: before %+v after %+v", before, after)
	}
	if n := count(t, db); n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}
}

func TestImportTwiceKeepsCount(t *testing.T) {
	db := newTestDB(t)
	p := importer.New(db)

	rows := []importer.Row{
		{"الاسم الكامل": "Ali", "رقم الرخصة": "L1"},
		{"full_name": "", "license_number": "L2"},
		{"الاسم الكامل": "Sara", "رقم الرخصة": "L1"},
		{"full_name": "Omar"},
	}

	first, err := p.ImportRows(context.Background(), rows)
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	if first.Imported != 3 || first.Failed != 0 || first.Total != 4 {
		t.Errorf("first import = %+v, want imported=3 failed=0 total=4", first)
	}
	afterFirst := count(t, db)
	if afterFirst != 2 {
		t.Errorf("row count after first import = %d, want 2", afterFirst)
	}

	if _, err := p.ImportRows(context.Background(), rows); err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	if n := count(t, db); n != afterFirst {
		t.Errorf("row count after second import = %d, want %d", n, afterFirst)
	}
}
