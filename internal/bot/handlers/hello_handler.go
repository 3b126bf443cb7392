package handlers

import (
	"context"
)

// NewHelloHandler returns a handler for the /hello command.
func NewHelloHandler(deps HandlerDeps) HandlerFunc {
	return helloHandler{deps}.Handle
}

type helloHandler struct {
	deps HandlerDeps
}

func (h helloHandler) Handle(_ context.Context, req Request) (string, error) {
	return "Hi, " + req.Sender + "!", nil
}

// NewEchoHandler returns a handler for the /echo command.
func NewEchoHandler(deps HandlerDeps) HandlerFunc {
	return echoHandler{deps}.Handle
}

type echoHandler struct {
	deps HandlerDeps
}

func (h echoHandler) Handle(_ context.Context, req Request) (string, error) {
	if req.Args == "" {
		return "(nothing to echo)", nil
	}
	return req.Args, nil
}

// NewPingHandler returns a handler for the /ping command.
func NewPingHandler(deps HandlerDeps) HandlerFunc {
	return pingHandler{deps}.Handle
}

type pingHandler struct {
	deps HandlerDeps
}

func (h pingHandler) Handle(_ context.Context, _ Request) (string, error) {
	return "Pong!", nil
}
