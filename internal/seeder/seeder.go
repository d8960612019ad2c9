package seeder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Options controls sample log generation.
type Options struct {
	Files        int
	LinesPerFile int
	// InvalidRatio is the fraction of lines that are deliberately malformed.
	InvalidRatio float64
	// Seed makes output reproducible when non-zero.
	Seed int64
}

// Generate writes sample ezproxy-format log files into dir for local testing
// of the pipeline. Returns the paths of the files written.
func Generate(dir string, opts Options) ([]string, error) {
	if opts.Files <= 0 {
		opts.Files = 1
	}
	if opts.LinesPerFile <= 0 {
		opts.LinesPerFile = 1000
	}

	faker := gofakeit.New(opts.Seed)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for i := 0; i < opts.Files; i++ {
		name := fmt.Sprintf("ezproxy.log.%s.%d", time.Now().Format("20060102"), i)
		path := filepath.Join(dir, name)

		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create sample file: %w", err)
		}

		for j := 0; j < opts.LinesPerFile; j++ {
			var line string
			if faker.Float64Range(0, 1) < opts.InvalidRatio {
				line = faker.Sentence(5)
			} else {
				line = sampleLine(faker)
			}
			if _, err := fmt.Fprintln(f, line); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write sample file: %w", err)
			}
		}

		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("failed to close sample file: %w", err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

var sampleCodes = []int{200, 200, 200, 302, 304, 404, 500}

// sampleLine renders one valid ezproxy access line.
func sampleLine(faker *gofakeit.Faker) string {
	clickTime := faker.DateRange(
		time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
	).Format("02/Jan/2006:15:04:05 -0700")

	username := faker.Username()
	if faker.Bool() {
		username = "-"
	}

	// Geo fields are single tokens in this dialect.
	county, state, city := "-", "-", "-"
	if faker.Bool() {
		county = faker.Word()
		state = faker.StateAbr()
		city = faker.Word()
	}

	return fmt.Sprintf(`%s - %s [%s] "GET %s HTTP/1.1" %d %d %s %s %s %s %s %s`,
		faker.IPv4Address(),
		username,
		clickTime,
		"/"+faker.Word(),
		faker.RandomInt(sampleCodes),
		faker.Number(200, 50000),
		faker.LetterN(12),
		"https://"+faker.DomainName(),
		county,
		state,
		city,
		faker.LetterN(22),
	)
}
