package grader

// Grading and generation prompt templates. All graders demand a JSON object
// with a single binary "score" key so the response can be parsed with
// llm.ParseVerdict.

const relevancePromptTemplate = `You are a grader assessing relevance of a retrieved document to a user question. If the document contains keywords related to the user question, grade it as relevant. It does not need to be a stringent test. The goal is to filter out erroneous retrievals.
Give a binary score 'yes' or 'no' to indicate whether the document is relevant to the question.
Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

Here is the retrieved document:

%s

Here is the user question: %s`

const groundednessPromptTemplate = `You are a grader assessing whether an answer is grounded in / supported by a set of facts. Give a binary score 'yes' or 'no' to indicate whether the answer is grounded in / supported by the facts. Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

Here are the facts:

-------

%s

-------

Here is the answer: %s`

const usefulnessPromptTemplate = `You are an evaluator assessing whether the generated answer is correct and actually addresses the given question.
Provide a JSON response with the following keys:

'score': A binary score 'yes' or 'no' indicating whether the answer is correct and relevant to the question.
'feedback': A brief explanation of your evaluation, including any issues or improvements needed.

Here is the generated answer:

-------

%s

-------

Here is the question: %s

-------

Here are the relevant documents: %s`

const rewritePromptTemplate = `You are a question re-writer that converts an input question to a better version that is optimized for vectorstore retrieval. Look at the input and try to reason about the underlying semantic intent / meaning.

Here is the initial question: %s

Formulate an improved question. Return ONLY the rewritten question text, without any explanations or quotes.`

const generatePromptTemplate = `You are an AI personal assistant named FuFan. Users will pose questions related to X (Twitter) data, which are presented in the parts enclosed by <context></context> tags.

Use this information to formulate your answers.

If you cannot find an answer, please respond honestly that you do not know. Do not attempt to fabricate an answer.
If the question is unrelated to the context, politely respond that you can only answer questions related to the context provided.

<context>
%s
</context>

<question>
%s
</question>`
