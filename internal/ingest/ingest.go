package ingest

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"meter-route-planner/internal/models"
)

const (
	// NoAddress labels located rows without a plot address
	NoAddress = "No address"
	// NoAddressProvided labels unlocated rows without a plot address
	NoAddressProvided = "No address provided"
	// UnknownService labels rows without a service type
	UnknownService = "Unknown"
	// NoMeterNumber stands in for a missing meter number
	NoMeterNumber = "N/A"

	maxListedServices = 3
)

// Columns names the survey sheet headers the builder reads
type Columns struct {
	Easting  string `mapstructure:"easting"`
	Northing string `mapstructure:"northing"`
	Sticker  string `mapstructure:"sticker"`
	MeterNo  string `mapstructure:"meter_no"`
	Address  string `mapstructure:"address"`
	Service  string `mapstructure:"service"`
}

// DefaultColumns returns the headers used by the utility's survey exports
func DefaultColumns() Columns {
	return Columns{
		Easting:  "X",
		Northing: "Y",
		Sticker:  "رقم اللاصق",
		MeterNo:  "METER_NO",
		Address:  "عنوان القسيمه",
		Service:  "الخدمة",
	}
}

// Row is one survey record keyed by column header
type Row struct {
	Index int
	Cells map[string]any
}

// ProjectedNormalizer converts an easting/northing pair to a position
type ProjectedNormalizer interface {
	NormalizeProjected(easting, northing any) models.Location
}

// Builder turns survey rows into stops
type Builder struct {
	normalizer ProjectedNormalizer
	columns    Columns
}

// NewBuilder creates a row builder. Empty column names fall back to the defaults.
func NewBuilder(normalizer ProjectedNormalizer, columns Columns) *Builder {
	defaults := DefaultColumns()
	if columns.Easting == "" {
		columns.Easting = defaults.Easting
	}
	if columns.Northing == "" {
		columns.Northing = defaults.Northing
	}
	if columns.Sticker == "" {
		columns.Sticker = defaults.Sticker
	}
	if columns.MeterNo == "" {
		columns.MeterNo = defaults.MeterNo
	}
	if columns.Address == "" {
		columns.Address = defaults.Address
	}
	if columns.Service == "" {
		columns.Service = defaults.Service
	}
	return &Builder{normalizer: normalizer, columns: columns}
}

type addressGroup struct {
	address  string
	location models.Location
	firstRow int
	meters   []models.Meter
}

// BuildStops groups located rows sharing an address into one stop and
// returns those stops in first-seen order, followed by one unlocated stop per
// row whose coordinates are missing or unusable, in row order.
func (b *Builder) BuildStops(rows []Row) []*models.Stop {
	groups := []*addressGroup{}
	byAddress := make(map[string]*addressGroup)
	unlocated := []*models.Stop{}

	for _, row := range rows {
		east, hasEast := b.cell(row, b.columns.Easting)
		north, hasNorth := b.cell(row, b.columns.Northing)

		loc := models.Unlocated
		if hasEast && hasNorth {
			loc = b.normalizer.NormalizeProjected(east, north)
			if !loc.Located {
				log.Printf("[GEOCODING] Row coordinates unusable, queueing for resolution: row=%d x=%v y=%v", row.Index, east, north)
			}
		}

		if !loc.Located {
			address := b.text(row, b.columns.Address, NoAddressProvided)
			meter := b.meter(row)
			unlocated = append(unlocated, &models.Stop{
				ID:          fmt.Sprintf("row_%d", row.Index),
				Location:    models.Unlocated,
				MeterNumber: meter.MeterNumber,
				Address:     address,
				ServiceType: meter.ServiceType,
				Meters:      []models.Meter{meter},
				Attributes:  meter.Raw,
				Status:      models.StatusPending,
			})
			continue
		}

		address := b.text(row, b.columns.Address, NoAddress)
		group, ok := byAddress[address]
		if !ok {
			group = &addressGroup{address: address, location: loc, firstRow: row.Index}
			byAddress[address] = group
			groups = append(groups, group)
		}
		group.meters = append(group.meters, b.meter(row))
	}

	stops := make([]*models.Stop, 0, len(groups)+len(unlocated))
	for _, g := range groups {
		stops = append(stops, &models.Stop{
			ID:          fmt.Sprintf("group_%d", g.firstRow),
			Location:    g.location,
			MeterNumber: meterNumbers(g.meters),
			Address:     g.address,
			ServiceType: ServiceLabel(g.meters),
			Meters:      g.meters,
			Attributes:  g.meters[0].Raw,
			Status:      models.StatusPending,
		})
	}
	stops = append(stops, unlocated...)

	log.Printf("[GEOCODING] Built stops from rows: rows=%d located=%d unlocated=%d", len(rows), len(groups), len(unlocated))
	return stops
}

func (b *Builder) meter(row Row) models.Meter {
	number := b.text(row, b.columns.Sticker, "")
	if number == "" {
		number = b.text(row, b.columns.MeterNo, NoMeterNumber)
	}
	return models.Meter{
		RowIndex:    row.Index,
		MeterNumber: number,
		ServiceType: b.text(row, b.columns.Service, UnknownService),
		Raw:         rawCells(row),
	}
}

// cell returns a non-blank value for header
func (b *Builder) cell(row Row, header string) (any, bool) {
	v, ok := row.Cells[header]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func (b *Builder) text(row Row, header, fallback string) string {
	v, ok := b.cell(row, header)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(formatCell(v))
}

// ServiceLabel summarises meter service types: up to three are concatenated
// ("EW"), more are counted per type in first-seen order ("2E 3W").
func ServiceLabel(meters []models.Meter) string {
	if len(meters) <= maxListedServices {
		var sb strings.Builder
		for _, m := range meters {
			sb.WriteString(m.ServiceType)
		}
		return sb.String()
	}

	order := []string{}
	counts := make(map[string]int)
	for _, m := range meters {
		if counts[m.ServiceType] == 0 {
			order = append(order, m.ServiceType)
		}
		counts[m.ServiceType]++
	}

	parts := make([]string, len(order))
	for i, t := range order {
		parts[i] = strconv.Itoa(counts[t]) + t
	}
	return strings.Join(parts, " ")
}

func meterNumbers(meters []models.Meter) string {
	numbers := make([]string, 0, len(meters))
	for _, m := range meters {
		if m.MeterNumber != NoMeterNumber {
			numbers = append(numbers, m.MeterNumber)
		}
	}
	if len(numbers) == 0 {
		return NoMeterNumber
	}
	return strings.Join(numbers, ", ")
}

func rawCells(row Row) map[string]string {
	raw := make(map[string]string, len(row.Cells))
	for k, v := range row.Cells {
		if v != nil {
			raw[k] = formatCell(v)
		}
	}
	return raw
}

func formatCell(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
