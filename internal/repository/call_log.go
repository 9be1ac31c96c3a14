package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"llmrelay/internal/model"
)

// ErrNotFound 目标记录不存在
var ErrNotFound = errors.New("record not found")

type CallLogRepository struct {
	db *sql.DB
}

func NewCallLogRepository(db *sql.DB) *CallLogRepository {
	return &CallLogRepository{db: db}
}

// AppendParams 新增记录的字段（id、时间戳、locked 由存储层赋值）
type AppendParams struct {
	Model        string
	Prompt       string
	Response     any
	DurationMs   float64
	Error        *string
	Format       string
	Schema       *string
	ResponseMeta any
	Tag          *string
}

// ListParams 查询参数
type ListParams struct {
	Tag       string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

// Append 追加一条记录，返回单调递增的 id。
// 时间戳取插入时刻（UTC，RFC3339），locked 默认 false。
func (r *CallLogRepository) Append(params AppendParams) (int64, error) {
	response, err := marshalNullable(params.Response)
	if err != nil {
		return 0, fmt.Errorf("append call log: encode response: %w", err)
	}
	responseMeta, err := marshalNullable(params.ResponseMeta)
	if err != nil {
		return 0, fmt.Errorf("append call log: encode response_meta: %w", err)
	}

	result, err := r.db.Exec(`
		INSERT INTO call_logs (created_at, model, prompt, response, duration_ms, error, format, schema_str, response_meta, locked, tag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`,
		time.Now().UTC().Format(time.RFC3339),
		params.Model, params.Prompt, response, params.DurationMs,
		params.Error, params.Format, params.Schema, responseMeta, params.Tag,
	)
	if err != nil {
		return 0, fmt.Errorf("append call log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append call log: %w", err)
	}
	return id, nil
}

// buildFilters 组装 WHERE 条件。tag 为大小写敏感的子串匹配，
// 日期上下界按 ISO 字符串做含边界的字典序比较。
func buildFilters(params ListParams) (string, []any) {
	conditions := []string{"1=1"}
	args := []any{}

	if params.Tag != "" {
		conditions = append(conditions, "tag IS NOT NULL AND instr(tag, ?) > 0")
		args = append(args, params.Tag)
	}
	if params.StartDate != "" {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, params.StartDate)
	}
	if params.EndDate != "" {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, params.EndDate)
	}

	return strings.Join(conditions, " AND "), args
}

// List 查询记录列表，id 降序（最新在前）
func (r *CallLogRepository) List(params ListParams) ([]model.CallLog, error) {
	whereClause, args := buildFilters(params)

	if params.Limit < 1 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, model, prompt, response, duration_ms, error, format, schema_str, response_meta, locked, tag
		FROM call_logs
		WHERE %s
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, whereClause)

	args = append(args, params.Limit, params.Offset)
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	defer rows.Close()

	logs := []model.CallLog{}
	for rows.Next() {
		entry, err := scanCallLog(rows)
		if err != nil {
			return nil, fmt.Errorf("list call logs: %w", err)
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// Count 同 List 的过滤语义，返回匹配总数
func (r *CallLogRepository) Count(params ListParams) (int64, error) {
	whereClause, args := buildFilters(params)

	var total int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM call_logs WHERE %s", whereClause)
	if err := r.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count call logs: %w", err)
	}
	return total, nil
}

// GetByID 读取单条记录
func (r *CallLogRepository) GetByID(id int64) (*model.CallLog, error) {
	row := r.db.QueryRow(`
		SELECT id, created_at, model, prompt, response, duration_ms, error, format, schema_str, response_meta, locked, tag
		FROM call_logs WHERE id = ?
	`, id)

	entry, err := scanCallLog(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get call log: %w", err)
	}
	return &entry, nil
}

// ListTags 去重后的非空 tag，按不区分大小写排序，保留原始大小写
func (r *CallLogRepository) ListTags() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT tag FROM call_logs
		WHERE tag IS NOT NULL AND tag != ''
		ORDER BY tag COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// SetLocked 切换锁定状态，目标不存在时返回 ErrNotFound，幂等
func (r *CallLogRepository) SetLocked(id int64, locked bool) error {
	val := 0
	if locked {
		val = 1
	}

	result, err := r.db.Exec(`UPDATE call_logs SET locked = ? WHERE id = ?`, val, id)
	if err != nil {
		return fmt.Errorf("set locked: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set locked: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除单条记录。显式删除不受锁定状态限制。
func (r *CallLogRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM call_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete call log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete call log: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeKeepLastN 保留最新的 n 条未锁定记录，删除其余未锁定记录。
// 锁定记录无条件保留——任何清理策略都不会删除锁定记录。
func (r *CallLogRepository) PurgeKeepLastN(n int) (int64, error) {
	if n < 0 {
		n = 0
	}

	result, err := r.db.Exec(`
		DELETE FROM call_logs
		WHERE locked = 0 AND id NOT IN (
			SELECT id FROM call_logs WHERE locked = 0 ORDER BY id DESC LIMIT ?
		)
	`, n)
	if err != nil {
		return 0, fmt.Errorf("purge keep last n: %w", err)
	}
	return result.RowsAffected()
}

// PurgeKeepDays 删除 now - d 天之前的未锁定记录，锁定记录不受影响
func (r *CallLogRepository) PurgeKeepDays(d int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -d).Format(time.RFC3339)

	result, err := r.db.Exec(`
		DELETE FROM call_logs
		WHERE locked = 0 AND created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge keep days: %w", err)
	}
	return result.RowsAffected()
}

func marshalNullable(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallLog(row rowScanner) (model.CallLog, error) {
	var entry model.CallLog
	var response, errMsg, schemaStr, responseMeta, tag sql.NullString
	var locked int

	err := row.Scan(
		&entry.ID, &entry.Timestamp, &entry.Model, &entry.Prompt,
		&response, &entry.DurationMs, &errMsg,
		&entry.Metadata.Format, &schemaStr, &responseMeta, &locked, &tag,
	)
	if err != nil {
		return model.CallLog{}, err
	}

	entry.Locked = locked == 1

	if errMsg.Valid {
		entry.Error = &errMsg.String
	}
	if schemaStr.Valid {
		entry.Metadata.Schema = &schemaStr.String
	}
	if tag.Valid {
		entry.Tag = &tag.String
	}
	if response.Valid {
		if err := json.Unmarshal([]byte(response.String), &entry.Response); err != nil {
			return model.CallLog{}, err
		}
	}
	if responseMeta.Valid {
		if err := json.Unmarshal([]byte(responseMeta.String), &entry.ResponseMeta); err != nil {
			return model.CallLog{}, err
		}
	}

	return entry, nil
}
