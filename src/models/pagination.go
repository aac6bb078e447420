package models

import "math"

// PaginationParams ใช้เก็บค่าการแบ่งหน้า, ค้นหา และเรียงลำดับ
type PaginationParams struct {
	Page   int    `json:"page" query:"page"  example:"1"`            // หมายเลขหน้าที่ต้องการ
	Limit  int    `json:"limit" query:"limit" example:"10"`          // จำนวนรายการต่อหน้า
	SortBy string `json:"sortBy" query:"sortBy" example:"updatedAt"` // ฟิลด์ที่ใช้เรียงลำดับ
	Order  string `json:"order" query:"order" example:"desc"`        // ทิศทางการเรียง (asc/desc)
}

type PaginationMeta struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// PaginatedResponse โครงสร้างการตอบกลับแบบแบ่งหน้า
type PaginatedResponse struct {
	Data interface{}    `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

var sortableFields = map[string]bool{
	"updatedAt":    true,
	"createdAt":    true,
	"academicYear": true,
	"department":   true,
	"status":       true,
}

// DefaultPagination ค่าตั้งต้นสำหรับ Pagination
func DefaultPagination() PaginationParams {
	return PaginationParams{
		Page:   1,
		Limit:  10,
		SortBy: "updatedAt",
		Order:  "desc",
	}
}

// CleanPagination กันค่าที่ client ส่งมาผิด ๆ
func CleanPagination(p PaginationParams) PaginationParams {
	def := DefaultPagination()
	if p.Page < 1 {
		p.Page = def.Page
	}
	if p.Limit < 1 {
		p.Limit = def.Limit
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if !sortableFields[p.SortBy] {
		p.SortBy = def.SortBy
	}
	if p.Order != "asc" && p.Order != "desc" {
		p.Order = def.Order
	}
	return p
}

func NewPaginationMeta(total int64, params PaginationParams) PaginationMeta {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))
	return PaginationMeta{
		Total:       total,
		Page:        params.Page,
		Limit:       params.Limit,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrevious: params.Page > 1,
	}
}

// GetSkip คำนวณจำนวนรายการที่ต้องข้าม
func (p *PaginationParams) GetSkip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// GetSortOrder คืนค่า 1 = asc, -1 = desc
func (p *PaginationParams) GetSortOrder() int {
	if p.Order == "asc" {
		return 1
	}
	return -1
}
