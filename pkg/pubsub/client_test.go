package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	assert.Equal(t, "projects/ledger/topics/domain", topicResourceName("ledger", "domain"))
	assert.Equal(t, "projects/other/topics/domain", topicResourceName("ledger", "projects/other/topics/domain"))
	assert.Equal(t, "projects/ledger/subscriptions/sub", subscriptionResourceName("ledger", " sub "))
	assert.Empty(t, topicResourceName("", "domain"))
	assert.Empty(t, topicResourceName("ledger", ""))
}

func TestNewClientRequiresProjectAndTopic(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{DomainTopic: "d"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "ledger"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errTopicRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("domain"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestDomainSubscriptionNilWithoutClient(t *testing.T) {
	c := &Client{projectID: "ledger", cfg: config.PubSubConfig{DomainSubscription: "posting"}}
	assert.Nil(t, c.DomainSubscription())
}

func TestCredentialOptionsPreferInlineJSON(t *testing.T) {
	assert.Empty(t, credentialOptions(config.GCPConfig{ProjectID: "ledger"}))
	assert.Len(t, credentialOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}), 1)
	assert.Len(t, credentialOptions(config.GCPConfig{ApplicationCredentials: "/tmp/key.json"}), 1)
}
