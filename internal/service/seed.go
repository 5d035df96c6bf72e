package service

import "shikkha_backend/internal/model"

// DemoExamRequest 演示用试卷：三道选择题和一道创意题，共 13 分
func DemoExamRequest(teacherID string) CreateExamRequest {
	return CreateExamRequest{
		Title:        "সাধারণ বিজ্ঞান সাপ্তাহিক পরীক্ষা",
		Subject:      "বিজ্ঞান",
		ClassLevel:   "অষ্টম শ্রেণি",
		ExamType:     "সাপ্তাহিক",
		Duration:     20,
		Instructions: "সকল প্রশ্নের উত্তর দিতে হবে। বহুনির্বাচনী প্রশ্নে একটি মাত্র সঠিক উত্তর বেছে নাও।",
		TeacherID:    teacherID,
		Questions: []QuestionRequest{
			{
				QuestionType: string(model.KindMCQ),
				QuestionText: "পানির রাসায়নিক সংকেত কোনটি?",
				Options: []model.Option{
					{Text: "H₂O", IsCorrect: true},
					{Text: "CO₂"},
					{Text: "NaCl"},
					{Text: "O₂"},
				},
				Points:      1,
				Explanation: "দুটি হাইড্রোজেন ও একটি অক্সিজেন পরমাণু মিলে পানির অণু গঠিত হয়।",
			},
			{
				QuestionType: string(model.KindMCQ),
				QuestionText: "সূর্য থেকে পৃথিবীতে আলো আসতে প্রায় কত সময় লাগে?",
				Options: []model.Option{
					{Text: "৮ সেকেন্ড"},
					{Text: "৮ মিনিট", IsCorrect: true},
					{Text: "৮ ঘণ্টা"},
				},
				Points: 1,
			},
			{
				QuestionType: string(model.KindMCQ),
				QuestionText: "উদ্ভিদের খাদ্য তৈরির প্রক্রিয়াকে কী বলে?",
				Options: []model.Option{
					{Text: "শ্বসন"},
					{Text: "প্রস্বেদন"},
					{Text: "সালোকসংশ্লেষণ", IsCorrect: true},
					{Text: "অভিস্রবণ"},
				},
				Points: 1,
			},
			{
				QuestionType: string(model.KindCreative),
				QuestionText: "রহিম একটি গাছের পাতায় আয়োডিন দ্রবণ দিয়ে দেখল পাতাটি নীল হয়ে গেছে।",
				SubQuestions: []model.SubQuestion{
					{Label: "ক", Text: "ক্লোরোফিল কী?", Points: 1},
					{Label: "খ", Text: "পাতা নীল হওয়ার কারণ ব্যাখ্যা কর।", Points: 2},
					{Label: "গ", Text: "সালোকসংশ্লেষণে আলোর ভূমিকা বর্ণনা কর।", Points: 3},
					{Label: "ঘ", Text: "গাছ না থাকলে পরিবেশের উপর কী প্রভাব পড়বে বিশ্লেষণ কর।", Points: 4},
				},
			},
		},
	}
}
