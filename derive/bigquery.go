package derive

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// WrappedBigQuery holds a client for a dataset whose tables are named after
// the SDTM domains (dm, ex, ae, ...).
type WrappedBigQuery struct {
	Context  context.Context
	Client   *bigquery.Client
	Project  string
	Database string
}

func ConnectBigQuery(ctx context.Context, project, database string) (*WrappedBigQuery, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &WrappedBigQuery{
		Context:  ctx,
		Client:   client,
		Project:  project,
		Database: database,
	}, nil
}

func (BQ *WrappedBigQuery) Close() error {
	return BQ.Client.Close()
}

// ReadTable loads a whole domain table. Columns keep the names and order of
// the BigQuery schema; NULLs become missing cells.
func (BQ *WrappedBigQuery) ReadTable(name, table string) (*Table, error) {
	query := BQ.Client.Query(fmt.Sprintf("SELECT * FROM `%s.%s`", BQ.Database, table))

	itr, err := query.Read(BQ.Context)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var header []string
	rows := make([][]string, 0)
	for {
		var values []bigquery.Value
		err := itr.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}

		if header == nil {
			header = make([]string, len(itr.Schema))
			for i, field := range itr.Schema {
				header[i] = field.Name
			}
		}

		row := make([]string, len(values))
		for i, v := range values {
			row[i] = bigQueryString(v)
		}
		rows = append(rows, row)
	}

	if header == nil {
		// Empty result: the schema is still available from the iterator.
		header = make([]string, len(itr.Schema))
		for i, field := range itr.Schema {
			header[i] = field.Name
		}
	}

	log.Printf("Read %d %s records from %s.%s\n", len(rows), name, BQ.Database, table)

	return NewTable(name, header, rows), nil
}

func bigQueryString(v bigquery.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case civil.Date:
		return x.String()
	case civil.DateTime:
		return x.Date.String() + "T" + x.Time.String()
	case time.Time:
		return x.UTC().Format(DatetimeFormat)
	}

	return fmt.Sprint(v)
}
