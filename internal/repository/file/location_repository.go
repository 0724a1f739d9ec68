package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/pkg/validator"
)

// locationSeparator разделяет идентификатор места и кортеж метаданных
const locationSeparator = "*;*"

type locationRepository struct {
	path   string
	logger *zap.Logger
}

// NewLocationRepository читает фид мест вида `<id>*;*(lat, lon, 'category', 'checkins', 'users', 'name')`
func NewLocationRepository(path string, logger *zap.Logger) repository.LocationRepository {
	return &locationRepository{
		path:   path,
		logger: logger,
	}
}

func (r *locationRepository) LoadLocations(ctx context.Context) ([]domain.LocationRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open locations feed: %w", err)
	}
	defer f.Close()

	var (
		records []domain.LocationRecord
		skipped int
		line    int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line++
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		rec, err := ParseLocationLine(line, text)
		if err != nil {
			skipped++
			r.logger.Warn("Skipping malformed location",
				zap.Int("line", line),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read locations feed: %w", err)
	}

	r.logger.Info("Locations loaded",
		zap.String("path", r.path),
		zap.Int("places", len(records)),
		zap.Int("skipped", skipped))

	return records, nil
}

// ParseLocationLine разбирает одну строку фида мест
func ParseLocationLine(line int, text string) (domain.LocationRecord, error) {
	idPart, infoPart, ok := strings.Cut(text, locationSeparator)
	if !ok {
		return domain.LocationRecord{}, &domain.MalformedRecordError{Line: line, Field: "record", Value: text, Reason: "missing separator"}
	}

	id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
	if err != nil {
		return domain.LocationRecord{}, &domain.MalformedRecordError{Line: line, Field: "place_id", Value: idPart, Reason: err.Error()}
	}

	fields, err := parseTuple(infoPart)
	if err != nil {
		return domain.LocationRecord{}, &domain.MalformedRecordError{Line: line, Field: "info", Value: infoPart, Reason: err.Error()}
	}
	if len(fields) < 2 {
		return domain.LocationRecord{}, &domain.MalformedRecordError{Line: line, Field: "info", Value: infoPart, Reason: "coordinates missing"}
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return domain.LocationRecord{}, &domain.MalformedRecordError{Line: line, Field: "lat", Value: fields[0], Reason: err.Error()}
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return domain.LocationRecord{}, &domain.MalformedRecordError{Line: line, Field: "lon", Value: fields[1], Reason: err.Error()}
	}

	info := domain.PlaceInfo{
		Lat:           lat,
		Lon:           lon,
		Category:      field(fields, 2),
		CheckinsCount: field(fields, 3),
		UsersCount:    field(fields, 4),
		Name:          field(fields, 5),
	}
	if err := validator.Validate(&info); err != nil {
		return domain.LocationRecord{}, &domain.MalformedRecordError{Line: line, Field: "info", Value: infoPart, Reason: err.Error()}
	}

	return domain.LocationRecord{PlaceID: id, Info: info}, nil
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// parseTuple разбирает литерал кортежа: числа, строки в одинарных или двойных кавычках, None
func parseTuple(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("not a tuple")
	}
	s = s[1 : len(s)-1]

	var (
		fields []string
		cur    strings.Builder
	)
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}

		cur.Reset()
		switch q := s[i]; q {
		case '\'', '"':
			i++
			closed := false
			for i < len(s) {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					cur.WriteByte(s[i+1])
					i += 2
					continue
				}
				if c == q {
					closed = true
					i++
					break
				}
				cur.WriteByte(c)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string")
			}
			fields = append(fields, cur.String())
		default:
			for i < len(s) && s[i] != ',' {
				cur.WriteByte(s[i])
				i++
			}
			v := strings.TrimSpace(cur.String())
			if v == "None" {
				v = ""
			}
			fields = append(fields, v)
		}

		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i < len(s) {
			if s[i] != ',' {
				return nil, fmt.Errorf("unexpected %q at offset %d", s[i], i)
			}
			i++
		}
	}
	return fields, nil
}
