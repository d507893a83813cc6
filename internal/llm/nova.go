package llm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

var novaModels = map[string]string{
	"nova-lite": "us.amazon.nova-2-lite-v1:0",
	"nova-pro":  "us.amazon.nova-pro-v1:0",
}

// BedrockGenerator calls a Bedrock model through the Converse API.
type BedrockGenerator struct {
	model  string
	client *bedrockruntime.Client
}

// NewBedrockGenerator loads the default AWS config. region overrides the
// configured region when set.
func NewBedrockGenerator(ctx context.Context, model, region string) (*BedrockGenerator, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	return &BedrockGenerator{
		model:  resolveModel(novaModels, model, "nova-lite"),
		client: bedrockruntime.NewFromConfig(cfg),
	}, nil
}

func (g *BedrockGenerator) Name() string { return "bedrock" }

func (g *BedrockGenerator) Generate(ctx context.Context, req Request) Result {
	system, turns := req.split()

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.model),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(maxTokens(req))),
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	}
	if system != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		}
	}
	for _, m := range turns {
		role := types.ConversationRoleUser
		if m.Role == RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		input.Messages = append(input.Messages, types.Message{
			Role: role,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: m.Content},
			},
		})
	}

	return generate(ctx, g.Name(), g.model, req, func(ctx context.Context) (string, error) {
		resp, err := g.client.Converse(ctx, input)
		if err != nil {
			return "", err
		}
		return extractNovaText(resp), nil
	})
}

func extractNovaText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			return tb.Value
		}
	}
	return ""
}
