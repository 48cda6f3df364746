package scores

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/geoseam/geoseam/geomhelp"
)

const (
	// ScoreLayer is the feature table holding one record per tile.
	ScoreLayer = "mosaic"
	// ExtentLayer is the feature table holding one footprint per source raster.
	ExtentLayer = "extents"

	geometryColumn = "geom"
	pagesize       = 1000
)

// overrideTrue is the textual override marker; anything else means false.
func parseOverride(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "y")
}

func formatOverride(override bool) string {
	if override {
		return "y"
	}
	return ""
}

func spatialReferenceSystem(srsID int) gpkg.SpatialReferenceSystem {
	return gpkg.SpatialReferenceSystem{
		Name:                   fmt.Sprintf("EPSG:%d", srsID),
		ID:                     srsID,
		Organization:           "EPSG",
		OrganizationCoordsysID: srsID,
		Definition:             "undefined",
	}
}

func createLayer(h *gpkg.Handle, srsID int, name, createSQL string) error {
	if err := h.UpdateSRS(spatialReferenceSystem(srsID)); err != nil {
		return fmt.Errorf("updating srs in %s: %w", name, err)
	}
	if _, err := h.Exec(createSQL); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}
	err := h.AddGeometryTable(gpkg.TableDescription{
		Name:          name,
		ShortName:     name,
		Description:   name,
		GeometryField: geometryColumn,
		GeometryType:  gpkg.Polygon,
		SRS:           int32(srsID),
		//
		Z: gpkg.Prohibited,
		M: gpkg.Prohibited,
	})
	if err != nil {
		return fmt.Errorf("adding geometry table %s: %w", name, err)
	}
	return nil
}

// Persist writes the full store to a GeoPackage at path, one feature per
// tile record. Loading it back yields identical per-cell candidate sets and
// scores; the override flag round-trips through its textual form.
func (s *Store) Persist(path string, srsID int) error {
	h, err := gpkg.Open(path)
	if err != nil {
		return fmt.Errorf("opening score store %s: %w", path, err)
	}
	defer h.Close()

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v" (`+
		`fid INTEGER PRIMARY KEY AUTOINCREMENT, `+
		`raster TEXT NOT NULL, cell TEXT NOT NULL, `+
		`d_to_cent REAL NOT NULL, nodatas REAL NOT NULL, `+
		`nodata_v REAL NOT NULL, override TEXT, %v BLOB);`, ScoreLayer, geometryColumn)
	if err := createLayer(h, srsID, ScoreLayer, createSQL); err != nil {
		return err
	}

	insertSQL := fmt.Sprintf(`INSERT INTO "%v"(raster, cell, d_to_cent, nodatas, nodata_v, override, %v) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		ScoreLayer, geometryColumn)

	var ext *geom.Extent
	for start := 0; start < len(s.records); start += pagesize {
		end := min(start+pagesize, len(s.records))

		tx, err := h.Begin()
		if err != nil {
			return fmt.Errorf("starting transaction on %s: %w", path, err)
		}
		stmt, err := tx.Prepare(insertSQL)
		if err != nil {
			return fmt.Errorf("preparing insert on %s: %w", path, err)
		}
		for _, r := range s.records[start:end] {
			polygon := geomhelp.ExtentToPolygon(r.Extent)
			sb, err := gpkg.NewBinary(int32(srsID), polygon)
			if err != nil {
				return fmt.Errorf("encoding cell %s geometry: %w", r.Cell, err)
			}
			_, err = stmt.Exec(r.Raster, r.Cell, r.Distance, r.NoDatas, r.NoData, formatOverride(r.Override), sb)
			if err != nil {
				return fmt.Errorf("inserting tile %s: %w", r.Tile, err)
			}
			if ext == nil {
				e := r.Extent
				ext = &e
			} else {
				ext.AddGeometry(polygon)
			}
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing to %s: %w", path, err)
		}
	}

	if ext != nil {
		if err := h.UpdateGeometryExtent(ScoreLayer, ext); err != nil {
			return fmt.Errorf("updating extent of %s: %w", ScoreLayer, err)
		}
	}
	return nil
}

// Load reads a persisted score store back from a GeoPackage. Tile names are
// rederived from (cell, raster); a missing or unrecognized override field
// yields false.
func Load(path string) (*Store, error) {
	// gpkg.Open would create an empty GeoPackage for a missing path
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening score store %s: %w", path, err)
	}
	h, err := gpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening score store %s: %w", path, err)
	}
	defer h.Close()

	query := fmt.Sprintf(`SELECT raster, cell, d_to_cent, nodatas, nodata_v, override, %v FROM "%v" ORDER BY fid;`,
		geometryColumn, ScoreLayer)
	rows, err := h.Query(query)
	if err != nil {
		return nil, fmt.Errorf("reading score store %s: %w", path, err)
	}
	defer rows.Close()

	store := NewStore()
	for rows.Next() {
		var (
			rasterName, cellID       string
			distance, nodatas, senti float64
			overrideText             *string
			geomBlob                 []byte
		)
		if err := rows.Scan(&rasterName, &cellID, &distance, &nodatas, &senti, &overrideText, &geomBlob); err != nil {
			return nil, fmt.Errorf("scanning score record: %w", err)
		}
		override := false
		if overrideText != nil {
			override = parseOverride(*overrideText)
		}
		var cellExtent geom.Extent
		if len(geomBlob) > 0 {
			sb, err := gpkg.DecodeGeometry(geomBlob)
			if err != nil {
				return nil, fmt.Errorf("decoding cell %s geometry: %w", cellID, err)
			}
			if polygon, ok := sb.Geometry.(geom.Polygon); ok {
				cellExtent = geomhelp.PolygonExtent(polygon)
			}
		}
		store.Put(Record{
			Raster:   rasterName,
			Cell:     cellID,
			Tile:     TileName(cellID, rasterName),
			Distance: distance,
			NoDatas:  nodatas,
			NoData:   senti,
			Override: override,
			Extent:   cellExtent,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading score store %s: %w", path, err)
	}
	return store, nil
}

// WriteExtents writes one footprint polygon per source raster, in the given
// order, for visual QA of the input coverage.
func WriteExtents(path string, srsID int, names []string, extents map[string]geom.Extent) error {
	h, err := gpkg.Open(path)
	if err != nil {
		return fmt.Errorf("opening extents %s: %w", path, err)
	}
	defer h.Close()

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v" (`+
		`fid INTEGER PRIMARY KEY AUTOINCREMENT, file_name TEXT NOT NULL, %v BLOB);`,
		ExtentLayer, geometryColumn)
	if err := createLayer(h, srsID, ExtentLayer, createSQL); err != nil {
		return err
	}

	tx, err := h.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction on %s: %w", path, err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO "%v"(file_name, %v) VALUES(?, ?)`, ExtentLayer, geometryColumn))
	if err != nil {
		return fmt.Errorf("preparing insert on %s: %w", path, err)
	}

	var ext *geom.Extent
	for _, name := range names {
		polygon := geomhelp.ExtentToPolygon(extents[name])
		sb, err := gpkg.NewBinary(int32(srsID), polygon)
		if err != nil {
			return fmt.Errorf("encoding extent of %s: %w", name, err)
		}
		if _, err := stmt.Exec(name, sb); err != nil {
			return fmt.Errorf("inserting extent of %s: %w", name, err)
		}
		if ext == nil {
			e := extents[name]
			ext = &e
		} else {
			ext.AddGeometry(polygon)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing to %s: %w", path, err)
	}
	if ext != nil {
		if err := h.UpdateGeometryExtent(ExtentLayer, ext); err != nil {
			return fmt.Errorf("updating extent of %s: %w", ExtentLayer, err)
		}
	}
	return nil
}
