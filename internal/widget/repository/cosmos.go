package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/gogotex/widgets/internal/widget"
)

const (
	// PartitionKeyPath binds the container's partition key to the widget id.
	PartitionKeyPath = "/id"

	// DefaultThroughput is the minimum manual throughput (RU/s) of a container.
	DefaultThroughput = 400

	listQuery = "SELECT * FROM c"
)

// CosmosRepo implements Store on an Azure Cosmos DB container.
type CosmosRepo struct {
	client     *azcosmos.Client
	database   string
	container  string
	throughput int32
}

func NewCosmosRepo(client *azcosmos.Client, database, container string, throughput int32) *CosmosRepo {
	if throughput <= 0 {
		throughput = DefaultThroughput
	}
	return &CosmosRepo{client: client, database: database, container: container, throughput: throughput}
}

func statusOf(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// classify turns a Cosmos response error into the repository sentinels.
func classify(err error, format string, args ...any) error {
	switch statusOf(err) {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusPreconditionFailed:
		return ErrPreconditionFailed
	case http.StatusConflict:
		return ErrConflict
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// EnsureDatabase reads the database first and creates it only on 404, so an
// identity without create rights still passes when the database exists. A
// 409 on create means another instance won the race.
func (c *CosmosRepo) EnsureDatabase(ctx context.Context) (bool, error) {
	db, err := c.client.NewDatabase(c.database)
	if err != nil {
		return false, fmt.Errorf("database client %s: %w", c.database, err)
	}
	if _, err := db.Read(ctx, nil); err == nil {
		return false, nil
	} else if statusOf(err) != http.StatusNotFound {
		return false, fmt.Errorf("read database %s: %w", c.database, err)
	}

	_, err = c.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: c.database}, nil)
	if err == nil {
		return true, nil
	}
	if statusOf(err) == http.StatusConflict {
		return false, nil
	}
	return false, fmt.Errorf("create database %s: %w", c.database, err)
}

// EnsureContainer follows the same read-then-create order as EnsureDatabase.
func (c *CosmosRepo) EnsureContainer(ctx context.Context) (bool, error) {
	ctr, err := c.containerClient()
	if err != nil {
		return false, err
	}
	if _, err := ctr.Read(ctx, nil); err == nil {
		return false, nil
	} else if statusOf(err) != http.StatusNotFound {
		return false, fmt.Errorf("read container %s: %w", c.container, err)
	}

	db, err := c.client.NewDatabase(c.database)
	if err != nil {
		return false, fmt.Errorf("database client %s: %w", c.database, err)
	}
	throughput := azcosmos.NewManualThroughputProperties(c.throughput)
	props := azcosmos.ContainerProperties{
		ID: c.container,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{PartitionKeyPath},
		},
	}
	_, err = db.CreateContainer(ctx, props, &azcosmos.CreateContainerOptions{ThroughputProperties: &throughput})
	if err == nil {
		return true, nil
	}
	if statusOf(err) == http.StatusConflict {
		return false, nil
	}
	return false, fmt.Errorf("create container %s: %w", c.container, err)
}

func (c *CosmosRepo) Ping(ctx context.Context) error {
	db, err := c.client.NewDatabase(c.database)
	if err != nil {
		return fmt.Errorf("database client %s: %w", c.database, err)
	}
	if _, err := db.Read(ctx, nil); err != nil {
		return fmt.Errorf("read database %s: %w", c.database, err)
	}
	return nil
}

func (c *CosmosRepo) containerClient() (*azcosmos.ContainerClient, error) {
	ctr, err := c.client.NewContainer(c.database, c.container)
	if err != nil {
		return nil, fmt.Errorf("container client %s/%s: %w", c.database, c.container, err)
	}
	return ctr, nil
}

// List runs an unfiltered cross-partition query and drains every page.
func (c *CosmosRepo) List(ctx context.Context) ([]widget.Widget, error) {
	ctr, err := c.containerClient()
	if err != nil {
		return nil, err
	}
	out := []widget.Widget{}
	pager := ctr.NewQueryItemsPager(listQuery, azcosmos.NewPartitionKey(), nil)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query widgets: %w", err)
		}
		for _, raw := range resp.Items {
			var w widget.Widget
			if err := json.Unmarshal(raw, &w); err != nil {
				return nil, fmt.Errorf("decode widget: %w", err)
			}
			out = append(out, w)
		}
	}
	return out, nil
}

func (c *CosmosRepo) Get(ctx context.Context, id string) (*Record, error) {
	ctr, err := c.containerClient()
	if err != nil {
		return nil, err
	}
	resp, err := ctr.ReadItem(ctx, azcosmos.NewPartitionKeyString(id), id, nil)
	if err != nil {
		return nil, classify(err, "read widget %s", id)
	}
	var w widget.Widget
	if err := json.Unmarshal(resp.Value, &w); err != nil {
		return nil, fmt.Errorf("decode widget %s: %w", id, err)
	}
	return &Record{Widget: w, ETag: string(resp.ETag)}, nil
}

func (c *CosmosRepo) Create(ctx context.Context, w widget.Widget) (*Record, error) {
	ctr, err := c.containerClient()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode widget %s: %w", w.ID, err)
	}
	resp, err := ctr.CreateItem(ctx, azcosmos.NewPartitionKeyString(w.ID), body, nil)
	if err != nil {
		return nil, classify(err, "create widget %s", w.ID)
	}
	return &Record{Widget: w, ETag: string(resp.ETag)}, nil
}

func (c *CosmosRepo) Replace(ctx context.Context, w widget.Widget, ifMatch string) (*Record, error) {
	ctr, err := c.containerClient()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode widget %s: %w", w.ID, err)
	}
	var opts *azcosmos.ItemOptions
	if ifMatch != "" {
		etag := azcore.ETag(ifMatch)
		opts = &azcosmos.ItemOptions{IfMatchEtag: &etag}
	}
	resp, err := ctr.ReplaceItem(ctx, azcosmos.NewPartitionKeyString(w.ID), w.ID, body, opts)
	if err != nil {
		return nil, classify(err, "replace widget %s", w.ID)
	}
	return &Record{Widget: w, ETag: string(resp.ETag)}, nil
}

func (c *CosmosRepo) Delete(ctx context.Context, id string) error {
	ctr, err := c.containerClient()
	if err != nil {
		return err
	}
	if _, err := ctr.DeleteItem(ctx, azcosmos.NewPartitionKeyString(id), id, nil); err != nil {
		return classify(err, "delete widget %s", id)
	}
	return nil
}

var _ Store = (*CosmosRepo)(nil)
