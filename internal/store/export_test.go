package store

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"floodbatch/internal/domain"
	"floodbatch/internal/zonal"
)

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field_stats.csv")
	if err := ExportCSV(path, testStats(), domain.DefaultSeverityThresholds()); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading exported csv: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("csv has %d rows, want header plus 3", len(rows))
	}
	if rows[0][0] != "field_id" || rows[0][len(rows[0])-1] != "severity" {
		t.Errorf("header = %v", rows[0])
	}
	// f1/rp10: shallow and brief
	if rows[1][9] != "minor" {
		t.Errorf("rp10 severity = %s, want minor", rows[1][9])
	}
	// f1/rp100: deep and prolonged
	if rows[2][9] != "severe" {
		t.Errorf("rp100 severity = %s, want severe", rows[2][9])
	}
	// f2/rp100: dry
	if rows[3][9] != "none" {
		t.Errorf("dry field severity = %s, want none", rows[3][9])
	}
}

func TestExportGeoPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field_stats.gpkg")
	fields := []zonal.Field{
		{ID: "f1", Geometry: orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}},
		{ID: "f2", Geometry: orb.Polygon{{{20, 0}, {30, 0}, {30, 10}, {20, 10}, {20, 0}}}},
	}

	err := ExportGeoPackage(path, 4326, fields, testStats(), domain.DefaultSeverityThresholds())
	if err != nil {
		t.Fatalf("ExportGeoPackage() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var appID int
	if err := db.QueryRow("PRAGMA application_id").Scan(&appID); err != nil {
		t.Fatal(err)
	}
	if appID != gpkgApplicationID {
		t.Errorf("application_id = %#x, want %#x", appID, gpkgApplicationID)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM field_stats").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("field_stats has %d features, want 3", n)
	}

	var blob []byte
	var severity string
	err = db.QueryRow(`SELECT geom, severity FROM field_stats
		WHERE field_id = 'f1' AND scenario = 'rp100'`).Scan(&blob, &severity)
	if err != nil {
		t.Fatal(err)
	}
	if len(blob) < 40 || blob[0] != 'G' || blob[1] != 'P' {
		t.Errorf("geometry blob missing GP header")
	}
	if severity != "severe" {
		t.Errorf("severity = %s, want severe", severity)
	}

	var tableName string
	err = db.QueryRow("SELECT table_name FROM gpkg_contents WHERE data_type = 'features'").Scan(&tableName)
	if err != nil || tableName != "field_stats" {
		t.Errorf("gpkg_contents = (%q, %v)", tableName, err)
	}
}

func TestExportGeoPackageUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gpkg")
	err := ExportGeoPackage(path, 4326, nil, testStats(), domain.DefaultSeverityThresholds())
	if err == nil {
		t.Error("ExportGeoPackage() with missing geometries expected error")
	}
}
