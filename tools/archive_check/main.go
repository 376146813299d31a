package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/yosoku/stats-engine/internal/logic"
)

func main() {
	dsn := flag.String("dsn", "clickhouse://default:@localhost:9000/stats", "ClickHouse DSN")
	uid := flag.String("uid", "", "print the latest settlements of this user")
	flag.Parse()

	ctx := context.Background()
	opts, err := clickhouse.ParseDSN(*dsn)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := conn.Exec(ctx, logic.SettlementArchiveSchema); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Archive schema applied")

	var rows, distinct uint64
	if err := conn.QueryRow(ctx, "SELECT count(), uniqExact(id) FROM ticket_settlements").Scan(&rows, &distinct); err != nil {
		log.Fatal(err)
	}
	// Duplicates disappear once ReplacingMergeTree merges the parts.
	fmt.Printf("Rows: %d (distinct tickets: %d, pending merge: %d)\n", rows, distinct, rows-distinct)

	if *uid == "" {
		return
	}
	entries, err := logic.NewHistoryService(conn).GetUserHistory(ctx, *uid, 20)
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range entries {
		fmt.Printf("%s  %-10s %-5s %+7.2f  game=%s ticket=%s\n",
			e.SettledAt.Format("2006-01-02 15:04"), e.League, e.Settlement, e.Payout, e.GameID, e.TicketID)
	}
}
