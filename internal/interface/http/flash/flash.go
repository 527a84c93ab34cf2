// Package flash 页面重定向之间传递的一次性提示消息
//
// 写操作完成后重定向到列表页，提示信息在下一次页面渲染时读取并清除。
package flash

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CookieName flash cookie名称
const CookieName = "library_flash"

// Kind 消息类型
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Messages 一次渲染可读取的消息
type Messages struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty 是否没有任何消息
func (m Messages) Empty() bool {
	return m.Success == "" && m.Error == ""
}

func (m *Messages) set(kind Kind, text string) {
	switch kind {
	case Success:
		m.Success = text
	case Error:
		m.Error = text
	}
}

// Store flash消息存储
type Store interface {
	// Set 保存一条消息，供下一个请求读取
	Set(c *gin.Context, kind Kind, text string)

	// Pop 读取并清除消息
	Pop(c *gin.Context) Messages
}

// CookieStore 消息直接保存在cookie中（base64url编码的JSON）
type CookieStore struct{}

// NewCookieStore 创建cookie存储
func NewCookieStore() *CookieStore {
	return &CookieStore{}
}

// Set 写入cookie
func (s *CookieStore) Set(c *gin.Context, kind Kind, text string) {
	var m Messages
	m.set(kind, text)

	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	setCookie(c, base64.RawURLEncoding.EncodeToString(data), 0)
}

// Pop 读取并删除cookie
func (s *CookieStore) Pop(c *gin.Context) Messages {
	var m Messages

	value, err := c.Cookie(CookieName)
	if err != nil || value == "" {
		return m
	}
	clearCookie(c)

	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return m
	}
	_ = json.Unmarshal(data, &m)
	return m
}

func setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, maxAge, "/", "", false, true)
}

func clearCookie(c *gin.Context) {
	setCookie(c, "", -1)
}
