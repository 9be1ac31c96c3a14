package service

import (
	"context"
	"time"

	"llmrelay/internal/engine"
	"llmrelay/internal/model"
	"llmrelay/internal/repository"

	log "github.com/sirupsen/logrus"
)

// GenerationService 包装生成引擎：合并默认提供商配置、计时、写调用日志。
// 日志写入相对响应投递是尽力而为——写库失败不会掩盖已成功的生成结果。
type GenerationService struct {
	engine   *engine.Engine
	repo     *repository.CallLogRepository
	defaults model.ProviderMap
}

func NewGenerationService(eng *engine.Engine, repo *repository.CallLogRepository, defaults model.ProviderMap) *GenerationService {
	return &GenerationService{
		engine:   eng,
		repo:     repo,
		defaults: defaults,
	}
}

// Generate 执行一次生成并记录结果（成功或失败都会落一条记录）。
// duration_ms 覆盖引擎调用全程，含重试。
func (s *GenerationService) Generate(ctx context.Context, req model.GenerateRequest) (*model.GenerateResponse, error) {
	format := req.ResponseFormat
	if format == "" {
		// 与原接口兼容：带 schema 的请求默认按 dict 处理
		if req.Schema != "" {
			format = model.FormatDict
		} else {
			format = model.FormatText
		}
	}

	start := time.Now()
	result, err := s.engine.Generate(ctx, engine.Request{
		Model:     req.Model,
		Prompt:    req.Prompt,
		Format:    format,
		Schema:    req.Schema,
		Mode:      req.Mode,
		Providers: s.mergeProviders(req.Providers),
	})
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	s.record(req, format, durationMs, result, err)

	if err != nil {
		return nil, err
	}
	return &model.GenerateResponse{
		Status:       "success",
		Data:         result.Data,
		ResponseMeta: result.ResponseMeta,
	}, nil
}

// mergeProviders 请求内的 providers 覆盖服务端默认配置的同名条目
func (s *GenerationService) mergeProviders(reqProviders model.ProviderMap) model.ProviderMap {
	if len(s.defaults) == 0 {
		return reqProviders
	}

	merged := make(model.ProviderMap, len(s.defaults)+len(reqProviders))
	for name, p := range s.defaults {
		merged[name] = p
	}
	for name, p := range reqProviders {
		merged[name] = p
	}
	return merged
}

// record 尽力写一条调用日志；失败只记 warning
func (s *GenerationService) record(req model.GenerateRequest, format string, durationMs float64, result *engine.Result, genErr error) {
	params := repository.AppendParams{
		Model:      req.Model,
		Prompt:     req.Prompt,
		DurationMs: durationMs,
		Format:     format,
	}
	if req.Schema != "" {
		schemaStr := req.Schema
		params.Schema = &schemaStr
	}
	if req.Tag != "" {
		tag := req.Tag
		params.Tag = &tag
	}

	if genErr != nil {
		msg := genErr.Error()
		params.Error = &msg
	} else {
		params.Response = result.Data
		if result.ResponseMeta != nil {
			params.ResponseMeta = result.ResponseMeta
		}
	}

	if _, err := s.repo.Append(params); err != nil {
		log.WithError(err).Warn("call log write failed")
	}
}
