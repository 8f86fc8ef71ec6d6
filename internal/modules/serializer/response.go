package serializer

// Response is the uniform JSON envelope for every handler.
type Response struct {
	Code  int         `json:"code"`
	Data  interface{} `json:"data,omitempty"`
	Msg   string      `json:"msg,omitempty"`
	Error string      `json:"error,omitempty"`
}

const (
	CodeParamErr    = 40001
	CodeNotFoundErr = 40401
	CodeDBErr       = 50001
	CodeUpstreamErr = 50002
)

func Err(errCode int, msg string, err error) Response {
	res := Response{
		Code: errCode,
		Msg:  msg,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "parameter error"
	}
	return Err(CodeParamErr, msg, err)
}

func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	return Err(CodeDBErr, msg, err)
}

func NotFoundErr(msg string, err error) Response {
	if msg == "" {
		msg = "not found"
	}
	return Err(CodeNotFoundErr, msg, err)
}

func UpstreamErr(msg string, err error) Response {
	if msg == "" {
		msg = "upstream error"
	}
	return Err(CodeUpstreamErr, msg, err)
}
