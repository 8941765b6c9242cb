package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

// NewCosmosClient builds the account client from an endpoint and primary key.
// One client serves every container of the process; it needs no teardown.
func NewCosmosClient(endpoint, key string) (*azcosmos.Client, error) {
	cred, err := azcosmos.NewKeyCredential(key)
	if err != nil {
		return nil, err
	}
	return azcosmos.NewClientWithKey(endpoint, cred, nil)
}

// CosmosContainer talks to a Cosmos DB (NoSQL API) container partitioned on
// /id, so the document id doubles as the partition key value.
type CosmosContainer struct {
	container *azcosmos.ContainerClient
}

func NewCosmosContainer(client *azcosmos.Client, databaseID, containerID string) (*CosmosContainer, error) {
	container, err := client.NewContainer(databaseID, containerID)
	if err != nil {
		return nil, err
	}
	return &CosmosContainer{container: container}, nil
}

func (c *CosmosContainer) Read(ctx context.Context, id string, out interface{}) error {
	resp, err := c.container.ReadItem(ctx, azcosmos.NewPartitionKeyString(id), id, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(resp.Value, out)
}

func (c *CosmosContainer) Upsert(ctx context.Context, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = c.container.UpsertItem(ctx, azcosmos.NewPartitionKeyString(id), body, nil)
	return err
}

func (c *CosmosContainer) Create(ctx context.Context, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = c.container.CreateItem(ctx, azcosmos.NewPartitionKeyString(id), body, nil)
	if hasStatus(err, http.StatusConflict) {
		return ErrConflict
	}
	return err
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}
