// Package deploy points a function at a newly uploaded code artifact.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/aws/lambda"
	"tasnim.dev/aria-idc/internal/utils"
)

const DefaultParameterPrefix = "/aria/lambda/"

type Parameters interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type Functions interface {
	UpdateFunctionCode(ctx context.Context, functionName, bucket, key string) (lambda.FunctionVersion, error)
}

// Event is an S3 "Object Created" notification delivered through EventBridge.
type Event struct {
	Detail struct {
		Bucket struct {
			Name string `json:"name" validate:"required"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key" validate:"required"`
		} `json:"object"`
	} `json:"detail"`
}

// ParseEvent decodes and validates an artifact upload event.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decoding deploy event: %w", err)
	}
	if err := validator.New().Struct(ev); err != nil {
		return Event{}, fmt.Errorf("deploy event: %w", err)
	}
	return ev, nil
}

type Result struct {
	FunctionArn string `json:"FunctionArn"`
	Version     string `json:"Version"`
}

type Updater struct {
	params    Parameters
	functions Functions
	prefix    string
	log       *zap.Logger
}

func NewUpdater(params Parameters, functions Functions, prefix string, log *zap.Logger) *Updater {
	if prefix == "" {
		prefix = DefaultParameterPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Updater{params: params, functions: functions, prefix: prefix, log: log}
}

// ParameterName returns the parameter holding the target function for an artifact key.
func (u *Updater) ParameterName(key string) string {
	return u.prefix + utils.BaseNameNoExt(key)
}

// Update resolves the function the artifact belongs to and publishes its new code.
func (u *Updater) Update(ctx context.Context, ev Event) (Result, error) {
	bucket, key := ev.Detail.Bucket.Name, ev.Detail.Object.Key
	name := u.ParameterName(key)

	functionArn, err := u.params.GetParameter(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("resolving function for %s: %w", key, err)
	}
	if functionArn == "" {
		return Result{}, fmt.Errorf("resolving function for %s: parameter %s is empty", key, name)
	}

	v, err := u.functions.UpdateFunctionCode(ctx, functionArn, bucket, key)
	if err != nil {
		return Result{}, fmt.Errorf("updating %s: %w", functionArn, err)
	}
	u.log.Info("function code updated",
		zap.String("function_arn", v.FunctionArn),
		zap.String("version", v.Version),
		zap.String("bucket", bucket),
		zap.String("key", key))
	return Result{FunctionArn: v.FunctionArn, Version: v.Version}, nil
}
