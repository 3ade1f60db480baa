package codec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// GenerateMethod is the full gRPC method name of the persona generator.
// Request and response are google.protobuf.Struct documents carrying the
// generator's JSON contract.
const GenerateMethod = "/consensus.persona.v1.PersonaGenerator/Generate"

// #region types
// generateReply is the generator's JSON contract. A populated Error means the
// generator rejected the request.
type generateReply struct {
	PersonaSetID string            `json:"persona_set_id"`
	Personas     []persona.Persona `json:"personas"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
// #endregion types

// #region client-struct
// GeneratorClient wraps the gRPC connection to the persona generator service.
type GeneratorClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}
// #endregion client-struct

// #region constructor
// NewGeneratorClient connects to the persona generator gRPC server.
func NewGeneratorClient(addr string) (*GeneratorClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GeneratorClient{conn: conn, cc: conn}, nil
}

// NewGeneratorClientWithConn creates a GeneratorClient over an injected
// connection. Used for testing without a real gRPC server.
func NewGeneratorClientWithConn(cc grpc.ClientConnInterface) *GeneratorClient {
	return &GeneratorClient{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection, if this client owns one.
func (c *GeneratorClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Shutdown closes the connection when its injector shuts down.
func (c *GeneratorClient) Shutdown() error {
	return c.Close()
}
// #endregion close

// #region generate
// Generate asks the generator service for a persona set.
func (c *GeneratorClient) Generate(ctx context.Context, req persona.GenerateRequest) (persona.GenerateResult, error) {
	in, err := toStruct(req)
	if err != nil {
		return persona.GenerateResult{}, fmt.Errorf("encode generate request: %w", err)
	}

	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, GenerateMethod, in, out); err != nil {
		return persona.GenerateResult{}, fmt.Errorf("generate rpc: %w", err)
	}

	data, err := json.Marshal(out.AsMap())
	if err != nil {
		return persona.GenerateResult{}, fmt.Errorf("encode generate reply: %w", err)
	}
	var reply generateReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return persona.GenerateResult{}, fmt.Errorf("decode generate reply: %w", err)
	}
	if reply.Error != nil {
		return persona.GenerateResult{}, &persona.GenerationError{Message: reply.Error.Message}
	}
	if reply.PersonaSetID == "" {
		return persona.GenerateResult{}, &persona.GenerationError{Message: "generator returned no persona_set_id"}
	}

	return persona.GenerateResult{
		PersonaSetID: reply.PersonaSetID,
		Personas:     reply.Personas,
	}, nil
}
// #endregion generate

// #region helpers
// toStruct converts v to a Struct through its JSON form, since structpb only
// accepts plain map[string]any trees.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
// #endregion helpers
