package client

import (
	"fmt"
	"strings"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	sms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

var _ Client = (*TencentCloudSMS)(nil)

// TencentCloudSMS 腾讯云短信实现
type TencentCloudSMS struct {
	client *sms.Client
	appID  string
}

// NewTencentCloudSMS 创建腾讯云短信实例
func NewTencentCloudSMS(regionID, secretID, secretKey, appID string) (*TencentCloudSMS, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	client, err := sms.NewClient(credential, regionID, cpf)
	if err != nil {
		return nil, err
	}
	return &TencentCloudSMS{
		client: client,
		appID:  appID,
	}, nil
}

func (t *TencentCloudSMS) Send(req SendReq) (SendResp, error) {
	if len(req.PhoneNumbers) == 0 {
		return SendResp{}, fmt.Errorf("%w: %v", ErrInvalidParameter, "手机号码不能为空")
	}

	request := sms.NewSendSmsRequest()
	request.SmsSdkAppId = common.StringPtr(t.appID)
	request.SignName = common.StringPtr(req.SignName)
	request.TemplateId = common.StringPtr(req.TemplateID)
	request.PhoneNumberSet = common.StringPtrs(req.PhoneNumbers)

	// 腾讯云模板参数只接受有序数组，按模板声明顺序传入
	params := make([]string, 0, len(req.TemplateParam))
	for _, v := range req.TemplateParam {
		params = append(params, v)
	}
	request.TemplateParamSet = common.StringPtrs(params)

	response, err := t.client.SendSms(request)
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if response.Response == nil {
		return SendResp{}, fmt.Errorf("%w: %v", ErrSendFailed, "响应异常")
	}

	result := SendResp{
		PhoneNumbers: make(map[string]SendRespStatus),
	}
	if response.Response.RequestId != nil {
		result.RequestID = *response.Response.RequestId
	}

	var lastErr error
	for _, status := range response.Response.SendStatusSet {
		if status == nil || status.PhoneNumber == nil {
			continue
		}
		cleanPhone := strings.TrimPrefix(*status.PhoneNumber, "+86")
		respStatus := SendRespStatus{}
		if status.Code != nil {
			respStatus.Code = *status.Code
		}
		if status.Message != nil {
			respStatus.Message = *status.Message
		}
		result.PhoneNumbers[cleanPhone] = respStatus
		if !strings.EqualFold(respStatus.Code, "Ok") {
			lastErr = fmt.Errorf("%w: phone=%s code=%s message=%s",
				ErrSendFailed, cleanPhone, respStatus.Code, respStatus.Message)
		}
	}
	if lastErr != nil {
		return result, lastErr
	}
	return result, nil
}
