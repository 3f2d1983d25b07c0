// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultTopK is the number of passages fetched per retrieval.
const DefaultTopK int32 = 5

var kbTracer = otel.Tracer("kook-backend/retrieval/bedrock")

// retrieveAPI is the narrow slice of the Bedrock agent runtime client that
// KnowledgeBaseRetriever needs. Tests substitute a fake.
type retrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// KnowledgeBaseRetriever runs vector search against a Bedrock knowledge
// base.
//
// # Limitations
//
// - Single-page results only; topK is small enough that pagination never
//   triggers in practice.
// - Result passages with no text content are dropped.
type KnowledgeBaseRetriever struct {
	api             retrieveAPI
	knowledgeBaseID string
	topK            int32
}

var _ Retriever = (*KnowledgeBaseRetriever)(nil)

// NewKnowledgeBaseRetriever creates a retriever bound to one knowledge base.
// A topK of zero or less falls back to DefaultTopK.
func NewKnowledgeBaseRetriever(api retrieveAPI, knowledgeBaseID string, topK int32) *KnowledgeBaseRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &KnowledgeBaseRetriever{api: api, knowledgeBaseID: knowledgeBaseID, topK: topK}
}

// Retrieve implements Retriever.
func (r *KnowledgeBaseRetriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	ctx, span := kbTracer.Start(ctx, "retrieval.knowledge_base.retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("retrieval.knowledge_base_id", r.knowledgeBaseID),
		attribute.Int("retrieval.top_k", int(r.topK)),
	)

	out, err := r.api.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(r.knowledgeBaseID),
		RetrievalQuery: &agenttypes.KnowledgeBaseQuery{
			Text: aws.String(query),
		},
		RetrievalConfiguration: &agenttypes.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &agenttypes.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(r.topK),
			},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieve failed")
		return nil, fmt.Errorf("knowledge base retrieve: %w", err)
	}

	docs := make([]Document, 0, len(out.RetrievalResults))
	for _, result := range out.RetrievalResults {
		if result.Content == nil || result.Content.Text == nil {
			continue
		}
		docs = append(docs, Document{Content: *result.Content.Text})
	}

	span.SetAttributes(attribute.Int("retrieval.document_count", len(docs)))
	span.SetStatus(codes.Ok, "retrieve completed")
	return docs, nil
}
