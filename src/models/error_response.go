package models

// ErrorResponse โครงสร้างมาตรฐานสำหรับการส่ง Error
type ErrorResponse struct {
	Status  int    `json:"status"`         // HTTP Status Code
	Code    string `json:"code,omitempty"` // ประเภท error ให้ client ตัดสินใจว่าจะ retry หรือไม่
	Message string `json:"message"`        // รายละเอียดของ Error
}
