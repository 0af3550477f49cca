package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/model"
)

// MaxSelectedRepos bounds the selectedRepos list a user may persist.
const MaxSelectedRepos = 5

// DynamoAPI is the slice of the DynamoDB client the store uses. Tests
// substitute a fake; production wiring passes *dynamodb.Client.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Config names the three tables the store touches. Passed in explicitly at
// construction; nothing reads table names from globals.
type Config struct {
	ProfilesTable        string // keyed by user_id; per-provider access tokens
	ProfileAnalysisTable string // keyed by uuid; per-user analysis documents
	RepoAnalysisTable    string // keyed by full_name; per-repo analysis documents
}

// Store reads and writes analysis documents in DynamoDB. Read results come
// back decoded through the item codec; the couple of writes the backend
// performs use explicit tagged values.
type Store struct {
	client DynamoAPI
	cfg    Config
	logger *slog.Logger
}

// NewStore creates a Store over the given client and table config.
func NewStore(client DynamoAPI, cfg Config, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProfileAnalysis fetches and decodes the analysis document for a user.
// Returns NotFound when the worker hasn't produced one yet.
func (s *Store) GetProfileAnalysis(ctx context.Context, userID string) (map[string]any, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.cfg.ProfileAnalysisTable),
		Key: map[string]types.AttributeValue{
			"uuid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, apperror.External("dynamodb", err)
	}
	if len(out.Item) == 0 {
		return nil, apperror.NotFound("profile analysis", userID)
	}

	doc, err := DecodeItem(out.Item)
	if err != nil {
		return nil, fmt.Errorf("analysis: decoding profile analysis for %s: %w", userID, err)
	}
	return doc, nil
}

// GetRepoAnalysis fetches and decodes the analysis document for one
// repository, keyed by its "owner/repo" full name.
func (s *Store) GetRepoAnalysis(ctx context.Context, fullName string) (map[string]any, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.cfg.RepoAnalysisTable),
		Key: map[string]types.AttributeValue{
			"full_name": &types.AttributeValueMemberS{Value: fullName},
		},
	})
	if err != nil {
		return nil, apperror.External("dynamodb", err)
	}
	if len(out.Item) == 0 {
		return nil, apperror.NotFound("repo analysis", fullName)
	}

	doc, err := DecodeItem(out.Item)
	if err != nil {
		return nil, fmt.Errorf("analysis: decoding repo analysis for %s: %w", fullName, err)
	}
	return doc, nil
}

// PutAccessToken writes a provider access token through to the profiles
// table (attribute "<provider>_access_token"), creating the item if the
// user has none yet.
func (s *Store) PutAccessToken(ctx context.Context, userID string, provider model.Provider, token string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.cfg.ProfilesTable),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression: aws.String("SET #AT = :t"),
		ExpressionAttributeNames: map[string]string{
			"#AT": fmt.Sprintf("%s_access_token", provider),
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		return apperror.External("dynamodb", err)
	}
	return nil
}

// SetSelectedRepos writes the user's chosen repos to the profile-analysis
// document as a string set. The list must have 1..MaxSelectedRepos
// entries.
func (s *Store) SetSelectedRepos(ctx context.Context, userID string, repos []string) error {
	if len(repos) == 0 || len(repos) > MaxSelectedRepos {
		return apperror.ValidationFailed("repos",
			fmt.Sprintf("You must choose at least 1 and at most %d repos", MaxSelectedRepos))
	}
	for _, name := range repos {
		if name == "" {
			return apperror.ValidationFailed("repos", "repo names must be non-empty")
		}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.cfg.ProfileAnalysisTable),
		Key: map[string]types.AttributeValue{
			"uuid": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression: aws.String("SET selectedRepos = :reposSet"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":reposSet": &types.AttributeValueMemberSS{Value: repos},
		},
	})
	if err != nil {
		return apperror.External("dynamodb", err)
	}
	return nil
}
