package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// SeedFromCSV loads medicines from a CSV file with the header
// name,category,price,stock[,image]. Rows whose name already exists are
// skipped; malformed rows are logged and skipped.
func (s *service) SeedFromCSV(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("unable to open medicine catalog %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("unable to read medicine header: %w", err)
	}

	inserted := 0
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("seed: unable to read medicine row")
			continue
		}

		in, err := parseSeedRecord(record)
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("seed: skipping malformed medicine row")
			continue
		}

		exists, err := s.repo.ExistsByName(ctx, in.Name)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		if _, err := s.CreateMedicine(ctx, in); err != nil {
			log.Warn().Err(err).Int("line", line).Str("name", in.Name).Msg("seed: unable to insert medicine")
			continue
		}
		inserted++
	}

	log.Info().Int("rows", inserted).Str("path", path).Msg("seed: medicine catalog loaded")
	return inserted, nil
}

func parseSeedRecord(record []string) (CreateInput, error) {
	if len(record) < 4 {
		return CreateInput{}, fmt.Errorf("expected at least 4 columns, got %d", len(record))
	}

	price, err := ParsePrice(record[2])
	if err != nil {
		return CreateInput{}, err
	}
	stock, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return CreateInput{}, fmt.Errorf("invalid stock %q", record[3])
	}

	in := CreateInput{
		Name:     strings.TrimSpace(record[0]),
		Category: strings.TrimSpace(record[1]),
		Price:    price,
		Stock:    stock,
	}
	if len(record) > 4 {
		in.Image = &record[4]
	}
	return in, nil
}
