package di

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dataops-lab/pipeline-lambdas/internal/dao/ledgerdao"
	"github.com/dataops-lab/pipeline-lambdas/internal/services"
)

// ProvideLedgerDAO returns nil when no ledger table is configured
func ProvideLedgerDAO(config *services.Config, client *dynamodb.Client) *ledgerdao.DAO {
	if config.LedgerTable == "" {
		return nil
	}
	return ledgerdao.New(client, config.LedgerTable)
}
