package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite"

	"floodbatch/internal/domain"
	"floodbatch/internal/zonal"
)

// GeoPackage application id "GPKG" and the 1.3 user version
const (
	gpkgApplicationID = 0x47504B47
	gpkgUserVersion   = 10300
)

const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4326"]]`

const gpkgSchema = `
CREATE TABLE gpkg_spatial_ref_sys (
	srs_name TEXT NOT NULL,
	srs_id INTEGER NOT NULL PRIMARY KEY,
	organization TEXT NOT NULL,
	organization_coordsys_id INTEGER NOT NULL,
	definition TEXT NOT NULL,
	description TEXT
);
CREATE TABLE gpkg_contents (
	table_name TEXT NOT NULL PRIMARY KEY,
	data_type TEXT NOT NULL,
	identifier TEXT UNIQUE,
	description TEXT DEFAULT '',
	last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
	srs_id INTEGER,
	CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
);
CREATE TABLE gpkg_geometry_columns (
	table_name TEXT NOT NULL,
	column_name TEXT NOT NULL,
	geometry_type_name TEXT NOT NULL,
	srs_id INTEGER NOT NULL,
	z TINYINT NOT NULL,
	m TINYINT NOT NULL,
	CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
);
CREATE TABLE field_stats (
	fid INTEGER PRIMARY KEY AUTOINCREMENT,
	geom BLOB,
	field_id TEXT NOT NULL,
	scenario TEXT NOT NULL,
	return_period_years INTEGER NOT NULL,
	mean_depth_m REAL NOT NULL,
	max_depth_m REAL NOT NULL,
	max_velocity_ms REAL NOT NULL,
	duration_h REAL NOT NULL,
	flooded_fraction REAL NOT NULL,
	flooded_area_m2 REAL NOT NULL,
	severity TEXT NOT NULL
);
`

// ExportGeoPackage writes a GeoPackage with one feature per field and
// scenario, carrying the field geometry and its statistics. An
// existing file at path is replaced.
func ExportGeoPackage(path string, srid int, fields []zonal.Field, stats []domain.FieldStats, thresholds domain.SeverityThresholds) error {
	geoms := make(map[string]orb.Geometry, len(fields))
	for _, f := range fields {
		geoms[f.ID] = f.Geometry
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer db.Close()

	for _, stmt := range []string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
		gpkgSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing geopackage: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, srs := range []struct {
		name string
		id   int
		org  string
		code int
		def  string
	}{
		{"Undefined Cartesian SRS", -1, "NONE", -1, "undefined"},
		{"Undefined Geographic SRS", 0, "NONE", 0, "undefined"},
		{"WGS 84", 4326, "EPSG", 4326, wgs84WKT},
	} {
		if _, err := tx.Exec(`INSERT INTO gpkg_spatial_ref_sys
			(srs_name, srs_id, organization, organization_coordsys_id, definition)
			VALUES (?, ?, ?, ?, ?)`,
			srs.name, srs.id, srs.org, srs.code, srs.def); err != nil {
			return fmt.Errorf("writing srs table: %w", err)
		}
	}
	if srid != 4326 {
		// projected field layers carry their SRID through from config
		if _, err := tx.Exec(`INSERT INTO gpkg_spatial_ref_sys
			(srs_name, srs_id, organization, organization_coordsys_id, definition)
			VALUES (?, ?, 'EPSG', ?, ?)`,
			fmt.Sprintf("EPSG:%d", srid), srid, srid, "undefined"); err != nil {
			return fmt.Errorf("writing srs table: %w", err)
		}
	}

	insert, err := tx.Prepare(`INSERT INTO field_stats
		(geom, field_id, scenario, return_period_years, mean_depth_m, max_depth_m,
		max_velocity_ms, duration_h, flooded_fraction, flooded_area_m2, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	bounds := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for _, st := range stats {
		geom, ok := geoms[st.FieldID]
		if !ok {
			return fmt.Errorf("stats reference unknown field %s", st.FieldID)
		}
		blob, err := gpkgGeometry(geom, int32(srid))
		if err != nil {
			return fmt.Errorf("encoding field %s: %w", st.FieldID, err)
		}
		if _, err := insert.Exec(blob, st.FieldID, st.Scenario, st.ReturnPeriodYears,
			st.MeanDepth, st.MaxDepth, st.MaxVelocity,
			st.DurationHours, st.FloodedFraction, st.FloodedAreaM2,
			string(st.Classify(thresholds))); err != nil {
			return fmt.Errorf("writing field %s: %w", st.FieldID, err)
		}
		bounds = bounds.Union(geom.Bound())
	}
	if len(stats) == 0 {
		bounds = orb.Bound{}
	}

	if _, err := tx.Exec(`INSERT INTO gpkg_geometry_columns
		(table_name, column_name, geometry_type_name, srs_id, z, m)
		VALUES ('field_stats', 'geom', 'GEOMETRY', ?, 0, 0)`, srid); err != nil {
		return fmt.Errorf("writing geometry columns: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO gpkg_contents
		(table_name, data_type, identifier, description, min_x, min_y, max_x, max_y, srs_id)
		VALUES ('field_stats', 'features', 'field_stats',
			'per-field flood statistics by scenario', ?, ?, ?, ?, ?)`,
		bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1], srid); err != nil {
		return fmt.Errorf("writing contents: %w", err)
	}
	return tx.Commit()
}

// gpkgGeometry encodes a geometry as a GeoPackage binary blob:
// the "GP" header with a little-endian envelope, then standard WKB.
func gpkgGeometry(geom orb.Geometry, srid int32) ([]byte, error) {
	wkbData, err := wkb.Marshal(geom, binary.LittleEndian)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("GP")
	buf.WriteByte(0)
	// flags: envelope [minx, maxx, miny, maxy], little-endian
	buf.WriteByte(0x03)
	if err := binary.Write(&buf, binary.LittleEndian, srid); err != nil {
		return nil, err
	}
	b := geom.Bound()
	for _, v := range []float64{b.Min[0], b.Max[0], b.Min[1], b.Max[1]} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	buf.Write(wkbData)
	return buf.Bytes(), nil
}
