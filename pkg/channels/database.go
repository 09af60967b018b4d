package channels

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

const channelMapQuery = "SELECT Crate, Slot, Channel, SensorID FROM ChannelMapping WHERE MinRun <= ? AND MaxRun >= ? ORDER BY SensorID"

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// LoadChannelMap reads the channel mapping valid for runNumber.
func LoadChannelMap(db *sqlx.DB, runNumber int) (*ChannelMap, error) {
	logger.Info(fmt.Sprintf("Reading channel mapping for run %d", runNumber), "database")

	rows, err := db.Queryx(channelMapQuery, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry := Entry{}
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}

	channelMap, err := NewChannelMap(entries)
	if err != nil {
		return nil, fmt.Errorf("error building channel map for run %d: %w", runNumber, err)
	}
	logger.Info(fmt.Sprintf("Channel mapping read from DB: %d channels", channelMap.Len()), "database")
	return channelMap, nil
}
