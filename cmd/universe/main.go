// Command universe compares two archive days: which symbols were delisted or
// newly listed between them and which traded the most on the later day.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/source/csvarchive"
	"equity-feature-lab/internal/universe"
)

func main() {
	csvDir := flag.String("csv-dir", "", "Directory of YYYYMMDD.csv daily snapshots")
	from := flag.String("from", "", "Earlier day (YYYY-MM-DD, default: first archive day)")
	to := flag.String("to", "", "Later day (YYYY-MM-DD, default: last archive day)")
	top := flag.Int("top", 20, "Number of most traded symbols to list (0 for all)")
	flag.Parse()

	logger := log.New(os.Stderr, "[universe] ", log.LstdFlags|log.Lshortfile)

	if *csvDir == "" {
		logger.Fatal("-csv-dir is required")
	}

	archive, err := csvarchive.Open(*csvDir, nil)
	if err != nil {
		logger.Fatalf("Failed to open archive: %v", err)
	}
	days, err := archive.Days()
	if err != nil {
		logger.Fatalf("Failed to list archive: %v", err)
	}
	if len(days) == 0 {
		logger.Fatalf("Archive %s is empty", *csvDir)
	}

	prevDate, err := pickDay(*from, days[0])
	if err != nil {
		logger.Fatalf("Invalid -from: %v", err)
	}
	nextDate, err := pickDay(*to, days[len(days)-1])
	if err != nil {
		logger.Fatalf("Invalid -to: %v", err)
	}
	if nextDate.Before(prevDate) {
		logger.Fatal(&domain.DateRangeError{Start: prevDate, End: nextDate, Reason: "end before start"})
	}

	prev, err := archive.ReadDay(prevDate)
	if err != nil {
		logger.Fatalf("Failed to read %s: %v", prevDate.Format(domain.DateLayout), err)
	}
	next, err := archive.ReadDay(nextDate)
	if err != nil {
		logger.Fatalf("Failed to read %s: %v", nextDate.Format(domain.DateLayout), err)
	}

	delisted, listed := universe.ListingChanges(prev.Symbols(), next.Symbols())

	records := make([]*domain.DailyRecord, 0, len(next.Rows))
	for _, sym := range next.Symbols() {
		records = append(records, next.Rows[sym])
	}
	ranked := universe.RankByVolume(records, *top)

	fmt.Printf("%s → %s\n", prevDate.Format(domain.DateLayout), nextDate.Format(domain.DateLayout))
	fmt.Printf("Symbols: %d → %d\n", len(prev.Rows), len(next.Rows))
	fmt.Printf("Delisted (%d): %s\n", len(delisted), strings.Join(delisted, ", "))
	fmt.Printf("Listed (%d): %s\n", len(listed), strings.Join(listed, ", "))
	if len(ranked) == 0 {
		fmt.Println("No volume column on the later day")
		return
	}
	fmt.Printf("Top %d by volume:\n", len(ranked))
	for i, id := range ranked {
		fmt.Printf("%3d. %-10s %.0f\n", i+1, id, *next.Rows[id].Volume)
	}
}

func pickDay(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.Parse(domain.DateLayout, value)
}
