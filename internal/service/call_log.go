package service

import (
	"llmrelay/internal/model"
	"llmrelay/internal/repository"
)

type CallLogService struct {
	repo *repository.CallLogRepository
}

func NewCallLogService(repo *repository.CallLogRepository) *CallLogService {
	return &CallLogService{repo: repo}
}

// ListCallLogsParams 列表查询参数（page 从 1 开始）
type ListCallLogsParams struct {
	Page      int
	Limit     int
	Tag       string
	StartDate string
	EndDate   string
}

// List 分页查询，返回数据与分页信息
func (s *CallLogService) List(params ListCallLogsParams) (*model.CallLogListResponse, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	repoParams := repository.ListParams{
		Tag:       params.Tag,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Limit:     params.Limit,
		Offset:    (params.Page - 1) * params.Limit,
	}

	logs, err := s.repo.List(repoParams)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(repoParams)
	if err != nil {
		return nil, err
	}

	pages := total / int64(params.Limit)
	if total%int64(params.Limit) != 0 {
		pages++
	}

	return &model.CallLogListResponse{
		Data: logs,
		Pagination: model.Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// GetByID 读取单条记录
func (s *CallLogService) GetByID(id int64) (*model.CallLog, error) {
	return s.repo.GetByID(id)
}

// ListTags 去重后的 tag 列表
func (s *CallLogService) ListTags() ([]string, error) {
	return s.repo.ListTags()
}

// SetLocked 切换锁定状态
func (s *CallLogService) SetLocked(id int64, locked bool) error {
	return s.repo.SetLocked(id, locked)
}

// Delete 删除单条记录
func (s *CallLogService) Delete(id int64) error {
	return s.repo.Delete(id)
}

// PurgeKeepLastN 按条数保留清理
func (s *CallLogService) PurgeKeepLastN(n int) (int64, error) {
	return s.repo.PurgeKeepLastN(n)
}

// PurgeKeepDays 按天数保留清理
func (s *CallLogService) PurgeKeepDays(d int) (int64, error) {
	return s.repo.PurgeKeepDays(d)
}
