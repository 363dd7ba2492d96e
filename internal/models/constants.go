package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// SnippetLimit caps the source snippets returned to callers.
	SnippetLimit = 200
	// AnswerLogLimit caps the answer text kept by the query logger.
	AnswerLogLimit = 5000
	// HistoryWindow is the number of trailing conversation turns rendered
	// into the prompt.
	HistoryWindow = 6
)

// Fixed responses for queries that retrieve nothing.
const (
	NotFoundEN = "No relevant content found. Please check if the document is loaded or try rephrasing your question."
	NotFoundZH = "未找到相关内容，请确认文档是否已导入或换个说法再试。"
)

// BasePromptTemplate takes the context block and the user question, in that
// order.
const BasePromptTemplate = `You are an assistant specialized in ERCOT and Texas TDSP (e.g. Oncor) tariffs and technical documents.
Answer ONLY using the provided context. If the answer is not in the context, say clearly that it is not found.
Always cite the document name and section/page if available.
If the user asks for an explanation for business/client, give a short plain-language explanation first, then a technical note.

Context:
%s

User question:
%s

Answer:
`

// ChineseAnswerNote is appended to the template when the query contains CJK
// characters. Section numbers and document names stay in English so citations
// remain checkable against the source documents.
const ChineseAnswerNote = "\nAnswer in Chinese. Keep section numbers and document names in English.\n"
