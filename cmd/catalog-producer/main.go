package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/kafka"
)

var demoStyles = [][]string{
	{"gegenpress", "high-line", "vertical"},
	{"possession", "short-passing", "patient"},
	{"low-block", "counter", "direct"},
	{"wing-play", "crossing", "overlap"},
	{"total-football", "fluid", "pressing"},
}

var demoClubs = []string{"Ajax", "Barcelona", "Liverpool", "Inter", "Atletico", "Leverkusen", "Napoli", "Porto"}

// loadRecords reads a JSON array of catalog records
func loadRecords(path string) ([]domain.CatalogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var records []domain.CatalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return records, nil
}

// displayName turns a tag such as "low-block" into "Low block"
func displayName(tag string) string {
	name := strings.ReplaceAll(tag, "-", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// demoRecords builds one playlist per style and n tactics spread over them
func demoRecords(n int) []domain.CatalogRecord {
	records := make([]domain.CatalogRecord, 0, len(demoStyles)+n)
	now := time.Now().UTC()

	for i, tags := range demoStyles {
		playlist := domain.TacticsPlaylist{
			ID:             uuid.New().String(),
			Title:          displayName(tags[0]),
			Description:    fmt.Sprintf("Tactics built on %s.", strings.Join(tags, ", ")),
			TacticalPreset: tags[0],
			Decade:         1970 + 10*i,
			Tags:           tags,
			CreatedAt:      now.Add(-time.Duration(i) * time.Hour),
		}
		records = append(records, domain.CatalogRecord{Kind: domain.RecordKindPlaylist, Playlist: &playlist})
	}

	for i := 0; i < n; i++ {
		style := demoStyles[i%len(demoStyles)]
		club := demoClubs[i%len(demoClubs)]
		// Every other tactic carries only two of the style tags.
		tags := style
		if i%2 == 1 {
			tags = style[:2]
		}
		tactic := domain.Tactic{
			ID:          uuid.New().String(),
			CreatedAt:   now.Add(-time.Duration(i) * time.Minute),
			TacticName:  fmt.Sprintf("%s %s #%d", club, style[0], i+1),
			Description: fmt.Sprintf("%s variant used by %s.", style[0], club),
			FormationID: "4-3-3",
			Positions:   domain.DefaultPositions(),
			Tags:        append([]string(nil), tags...),
			Club:        club,
			Verified:    i%3 == 0,
		}
		records = append(records, domain.CatalogRecord{Kind: domain.RecordKindTactic, Tactic: &tactic})
	}
	return records
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "tactics-catalog", "Kafka topic")
	seedFile := flag.String("file", "", "JSON file holding an array of catalog records")
	demo := flag.Int("demo", 0, "Generate this many demo tactics when no file is given")
	flag.Parse()

	var records []domain.CatalogRecord
	switch {
	case *seedFile != "":
		var err error
		records, err = loadRecords(*seedFile)
		if err != nil {
			log.Fatalf("Failed to load records: %v", err)
		}
	case *demo > 0:
		records = demoRecords(*demo)
	default:
		log.Fatal("Nothing to publish: pass -file or -demo")
	}

	// Validate everything before publishing anything
	decoder := kafka.NewRecordDecoder()
	for i, record := range records {
		if err := decoder.Validate(record); err != nil {
			log.Fatalf("Record %d (%s): %v", i, record.ID(), err)
		}
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  Tactics Catalog Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:  %s\n", *brokers)
	fmt.Printf("  Topic:    %s\n", *topic)
	fmt.Printf("  Records:  %d\n", len(records))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

publish:
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			log.Printf("Failed to marshal record %d: %v", i, err)
			continue
		}

		// Keying by id keeps every version of a record on one partition
		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(record.ID()),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-sigChan:
			fmt.Println("\nInterrupted, flushing...")
			break publish
		}

		fmt.Printf("\r  Progress: %d/%d", i+1, len(records))
	}
	fmt.Println()

	producer.AsyncClose()
	wg.Wait()
	fmt.Printf("✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
}
