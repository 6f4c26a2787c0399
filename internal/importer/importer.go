// Package importer reads phone catalogs from spreadsheet exports.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"phonecbr/internal/model"
	"phonecbr/internal/utils"

	"github.com/xuri/excelize/v2"
)

type column int

const (
	colID column = iota
	colName
	colBrand
	colPrice
	colRAM
	colStorage
	colScreen
	colCamera
	colBattery
	colOS
	colRating
	colYear
	colStock
	columnCount
)

// headerAliases lists accepted header spellings per column, lowercase.
var headerAliases = map[column][]string{
	colID:      {"id_hp", "id"},
	colName:    {"nama_hp", "name", "phone"},
	colBrand:   {"brand", "merek"},
	colPrice:   {"harga", "price"},
	colRAM:     {"ram", "ram_gb"},
	colStorage: {"memori_internal", "storage", "internal_storage", "storage_gb"},
	colScreen:  {"ukuran_layar", "screen", "screen_size", "screen_in"},
	colCamera:  {"resolusi_kamera", "camera", "camera_spec"},
	colBattery: {"kapasitas_baterai", "battery", "battery_mah"},
	colOS:      {"os", "operating_system"},
	colRating:  {"rating_pengguna", "rating"},
	colYear:    {"tahun_rilis", "release_year", "year"},
	colStock:   {"stok_tersedia", "in_stock", "stock"},
}

var requiredColumns = []column{
	colName, colBrand, colPrice, colRAM, colStorage, colScreen, colCamera, colBattery, colOS, colRating,
}

// RowError reports a spreadsheet row that could not be imported. Row numbers
// are 1-based and count the header row.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Result is the outcome of reading one file.
type Result struct {
	Phones   []model.Phone
	Rejected []RowError
}

// LoadFile reads an .xlsx or .csv catalog export.
func LoadFile(path string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return LoadCSV(f)
	}
	return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
}

func loadXLSX(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// LoadCSV reads a comma separated catalog with a header row.
func LoadCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, errors.New("catalog is empty")
	}
	index, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	res := &Result{}
	seen := make(map[int64]int)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		p, err := parsePhone(row, index)
		if err == nil && p.ID != 0 {
			if first, dup := seen[p.ID]; dup {
				err = fmt.Errorf("duplicate id %d (first seen on row %d)", p.ID, first)
			} else {
				seen[p.ID] = rowNum
			}
		}
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Row: rowNum, Err: err})
			continue
		}
		res.Phones = append(res.Phones, *p)
	}
	return res, nil
}

func mapHeader(header []string) ([columnCount]int, error) {
	var index [columnCount]int
	for c := range index {
		index[c] = -1
	}
	for pos, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		for c, aliases := range headerAliases {
			for _, a := range aliases {
				if key == a && index[c] < 0 {
					index[c] = pos
				}
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if index[c] < 0 {
			missing = append(missing, headerAliases[c][0])
		}
	}
	if len(missing) > 0 {
		return index, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func cell(row []string, index [columnCount]int, c column) string {
	pos := index[c]
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func parsePhone(row []string, index [columnCount]int) (*model.Phone, error) {
	p := &model.Phone{
		Name:  cell(row, index, colName),
		Brand: utils.NormalizeBrand(cell(row, index, colBrand)),
		OS:    utils.NormalizeOS(cell(row, index, colOS)),
	}

	if raw := cell(row, index, colID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", raw)
		}
		p.ID = id
	}

	numbers := []struct {
		col column
		dst *float64
	}{
		{colPrice, &p.Price},
		{colRAM, &p.RAM},
		{colStorage, &p.Storage},
		{colScreen, &p.ScreenSize},
		{colBattery, &p.Battery},
		{colRating, &p.Rating},
	}
	for _, n := range numbers {
		v, err := utils.ParseNumber(cell(row, index, n.col))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", headerAliases[n.col][0], err)
		}
		*n.dst = v
	}

	p.CameraSpec = cell(row, index, colCamera)
	p.CameraMP = utils.ParseCameraMP(p.CameraSpec)

	if raw := cell(row, index, colYear); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid release year %q", raw)
		}
		p.ReleaseYear = &y
	}

	inStock, err := utils.ParseBool(cell(row, index, colStock))
	if err != nil {
		return nil, err
	}
	p.InStock = inStock

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
