package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"careerpilot/common"
)

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topics := []string{
		common.GetEnv("KAFKA_COORDINATOR_TOPIC", "careerpilot.coordinator"),
		common.GetEnv("KAFKA_WORKERS_TOPIC", "careerpilot.workers"),
	}
	create := common.ParseBool(os.Getenv("CREATE_TOPICS"), false)
	partitions := common.ParseInt(os.Getenv("TOPIC_PARTITIONS"), 6)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to Kafka at %s: %v\n", broker, err)
		os.Exit(1)
	}
	defer conn.Close()

	parts, err := conn.ReadPartitions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read metadata: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("connected to Kafka at %s (%d partitions)\n", broker, len(parts))

	missing := missingTopics(parts, topics)
	if len(missing) == 0 {
		fmt.Printf("topics present: %v\n", topics)
		return
	}
	if !create {
		fmt.Fprintf(os.Stderr, "missing topics: %v (set CREATE_TOPICS=true to create)\n", missing)
		os.Exit(1)
	}
	if err := createTopics(ctx, conn, missing, partitions); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create topics: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created topics: %v\n", missing)
}

// missingTopics returns the entries of want that have no partition, sorted.
func missingTopics(parts []kafka.Partition, want []string) []string {
	have := make(map[string]bool, len(parts))
	for _, p := range parts {
		have[p.Topic] = true
	}
	var missing []string
	for _, t := range want {
		if t != "" && !have[t] {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)
	return missing
}

// createTopics creates topics on the cluster controller.
func createTopics(ctx context.Context, conn *kafka.Conn, topics []string, partitions int) error {
	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	cc, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer cc.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		configs = append(configs, kafka.TopicConfig{Topic: t, NumPartitions: partitions, ReplicationFactor: 1})
	}
	return cc.CreateTopics(configs...)
}
