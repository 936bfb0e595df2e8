package client

import "errors"

// OK 供应商侧成功状态码
const OK = "OK"

var (
	ErrInvalidParameter = errors.New("参数错误")
	ErrSendFailed       = errors.New("发送短信失败")
)

// Client 短信供应商客户端
type Client interface {
	// Send 发送短信
	Send(req SendReq) (SendResp, error)
}

// SendReq 发送短信请求
type SendReq struct {
	PhoneNumbers  []string          // 接收号码
	SignName      string            // 签名
	TemplateID    string            // 供应商侧模板编号
	TemplateParam map[string]string // 模板参数
}

// SendResp 发送短信响应
type SendResp struct {
	RequestID    string                    // 供应商请求ID
	PhoneNumbers map[string]SendRespStatus // 每个号码的发送状态
}

// SendRespStatus 单个号码的发送状态
type SendRespStatus struct {
	Code    string
	Message string
}
