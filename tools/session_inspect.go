package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"planning-poker/domain"
	"planning-poker/infrastructure/codec"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Lists the session snapshots persisted by a node.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "session:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Session", "State", "Round", "Owner", "Participants", "Result", "Last activity"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				snap, err := codec.UnmarshalSnapshot(v)
				if err != nil {
					color.Red.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}
				table.Append(row(string(item.Key()), snap))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func row(key string, snap domain.SessionSnapshot) []string {
	participants := lo.Map(snap.Participants, func(p domain.ParticipantSnapshot, _ int) string {
		return fmt.Sprintf("%s(%s)", p.Name, p.Role)
	})
	result := lo.Map(snap.Result, func(item domain.EstimationResultItem, _ int) string {
		return fmt.Sprintf("%s=%s", item.Name, item.Estimation)
	})
	owner := lo.Ternary(snap.Owner == "", color.Yellow.Render("orphan"), snap.Owner)
	return []string{
		key,
		snap.Name,
		stateColor(snap.State),
		fmt.Sprint(snap.Round),
		owner,
		strings.Join(participants, " "),
		strings.Join(result, " "),
		snap.LastActivity.Format("2006-01-02 15:04:05"),
	}
}

func stateColor(state domain.State) string {
	switch state {
	case domain.Estimating:
		return color.Cyan.Render(string(state))
	case domain.Finished:
		return color.Green.Render(string(state))
	default:
		return string(state)
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
