// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package encoder

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// Control socket op codes. The encoder speaks a JSON envelope protocol:
// the server opens with Hello (op 0), the client answers Identify (op 1),
// the server confirms Identified (op 2). After that the client sends
// Requests (op 6) answered by RequestResponses (op 7), and the server
// pushes Events (op 5) at any time.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opEvent           = 5
	opRequest         = 6
	opRequestResponse = 7
)

// The rpc version this client implements.
const rpcVersion = 1

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloAuth struct {
	Challenge string `json:"challenge"`
	Salt      string `json:"salt"`
}

type helloData struct {
	EncoderVersion string     `json:"encoderVersion,omitempty"`
	RPCVersion     int        `json:"rpcVersion"`
	Authentication *helloAuth `json:"authentication,omitempty"`
}

type identifyData struct {
	RPCVersion     int    `json:"rpcVersion"`
	Authentication string `json:"authentication,omitempty"`
}

type identifiedData struct {
	NegotiatedRPCVersion int `json:"negotiatedRpcVersion"`
}

type requestData struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type requestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment,omitempty"`
}

type responseData struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus requestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData,omitempty"`
}

type eventData struct {
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData,omitempty"`
}

// Request and response payloads for the operations this client uses.

type getStreamStatusResponse struct {
	OutputActive bool `json:"outputActive"`
}

type getCurrentSceneResponse struct {
	SceneName string `json:"sceneName"`
}

type setSceneRequest struct {
	SceneName string `json:"sceneName"`
}

type streamServiceSettings struct {
	Server string `json:"server"`
	Key    string `json:"key"`
}

type setStreamServiceRequest struct {
	StreamServiceType     string                `json:"streamServiceType"`
	StreamServiceSettings streamServiceSettings `json:"streamServiceSettings"`
}

// Push event payloads.

type streamStateChangedEvent struct {
	OutputActive bool `json:"outputActive"`
}

type sceneChangedEvent struct {
	SceneName string `json:"sceneName"`
}

// authResponse computes the challenge response for password auth:
// base64(sha256(base64(sha256(password + salt)) + challenge)).
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	proof := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(proof[:])
}

func marshalEnvelope(op int, d any) ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Op: op, D: raw})
}
