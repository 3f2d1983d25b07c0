// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"

	"github.com/K-OOK/kook-backend/datatypes"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Default inference parameters for recipe generation. Low temperature keeps
// the output close to the retrieved recipes; top-p trims the long tail.
const (
	defaultMaxTokens   int32   = 4096
	defaultTemperature float32 = 0.2
	defaultTopP        float32 = 0.6
)

var bedrockTracer = otel.Tracer("kook-backend/llm/bedrock")

// converseStreamAPI is the narrow slice of the Bedrock runtime client that
// BedrockClient needs. Tests substitute a fake.
type converseStreamAPI interface {
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// BedrockClient streams chat completions through the Bedrock Converse API.
//
// # Description
//
// One BedrockClient serves one attempt. It translates the prompt payload
// into a ConverseStream request, then forwards text deltas to the callback
// as they arrive. Non-text events (message start/stop, metadata) are
// consumed silently.
//
// # Limitations
//
// - Single content block per message; the recipe pipeline never produces
//   multi-block or non-text content.
// - No tool use or guardrail configuration.
type BedrockClient struct {
	api     converseStreamAPI
	modelID string
}

var _ StreamingClient = (*BedrockClient)(nil)

// NewBedrockClient creates a client bound to one model.
func NewBedrockClient(api converseStreamAPI, modelID string) *BedrockClient {
	return &BedrockClient{api: api, modelID: modelID}
}

// ChatStream implements StreamingClient over the Converse streaming API.
func (c *BedrockClient) ChatStream(ctx context.Context, payload datatypes.PromptPayload, callback StreamCallback) error {
	ctx, span := bedrockTracer.Start(ctx, "llm.bedrock.chat_stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model_id", c.modelID),
		attribute.Int("llm.message_count", len(payload.Messages)),
	)

	input, err := c.buildInput(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return err
	}

	out, err := c.api.ConverseStream(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "converse stream open failed")
		return fmt.Errorf("bedrock converse stream: %w", err)
	}

	stream := out.GetStream()
	defer stream.Close()

	tokens := 0
	for event := range stream.Events() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch ev := event.(type) {
		case *types.ConverseStreamOutputMemberContentBlockDelta:
			delta, ok := ev.Value.Delta.(*types.ContentBlockDeltaMemberText)
			if !ok {
				continue
			}
			tokens++
			if cbErr := callback(StreamEvent{Type: StreamEventToken, Content: delta.Value}); cbErr != nil {
				span.RecordError(cbErr)
				span.SetStatus(codes.Error, "callback aborted stream")
				return cbErr
			}
		case *types.ConverseStreamOutputMemberMessageStop:
			// End of assistant turn; the event channel closes right after.
		}
	}

	if err := stream.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream failed mid-iteration")
		return fmt.Errorf("bedrock stream: %w", err)
	}

	span.SetAttributes(attribute.Int("llm.fragments_emitted", tokens))
	span.SetStatus(codes.Ok, "stream completed")
	return nil
}

// buildInput translates the payload into a ConverseStream request.
func (c *BedrockClient) buildInput(payload datatypes.PromptPayload) (*bedrockruntime.ConverseStreamInput, error) {
	messages := make([]types.Message, 0, len(payload.Messages))
	for i, msg := range payload.Messages {
		role, err := conversationRole(msg.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		messages = append(messages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: msg.Content}},
		})
	}

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(c.modelID),
		Messages: messages,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(defaultMaxTokens),
			Temperature: aws.Float32(defaultTemperature),
			TopP:        aws.Float32(defaultTopP),
		},
	}
	if payload.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: payload.System},
		}
	}
	return input, nil
}

func conversationRole(role string) (types.ConversationRole, error) {
	switch role {
	case "user":
		return types.ConversationRoleUser, nil
	case "assistant":
		return types.ConversationRoleAssistant, nil
	default:
		return "", fmt.Errorf("unsupported role %q", role)
	}
}

// BedrockClientFactory builds a fresh BedrockClient per attempt from a
// shared immutable AWS config. NewFromConfig is cheap configuration binding;
// credential resolution happens lazily at request signing time, so a client
// built after a credential refresh signs with the fresh credentials.
type BedrockClientFactory struct {
	cfg     aws.Config
	modelID string
}

var _ ClientFactory = (*BedrockClientFactory)(nil)

// NewBedrockClientFactory creates a factory bound to one model.
func NewBedrockClientFactory(cfg aws.Config, modelID string) *BedrockClientFactory {
	return &BedrockClientFactory{cfg: cfg, modelID: modelID}
}

// NewStreamingClient implements ClientFactory.
func (f *BedrockClientFactory) NewStreamingClient() StreamingClient {
	return NewBedrockClient(bedrockruntime.NewFromConfig(f.cfg), f.modelID)
}
