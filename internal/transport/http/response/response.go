package response

import "github.com/gin-gonic/gin"

type Resp struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// New builds an envelope; data is never null.
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Success: code == CodeOK, Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error builds a failure envelope; customMsg overrides the default text.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// Status is the HTTP status an envelope is sent with.
func (r Resp) Status() int {
	if _, ok := CodeMsgMap[r.Code]; ok {
		return r.Code
	}
	return CodeServerError
}

func Write(c *gin.Context, r Resp) { c.JSON(r.Status(), r) }

func Abort(c *gin.Context, code int, msg string) {
	r := Error(code, msg)
	c.AbortWithStatusJSON(r.Status(), r)
}
