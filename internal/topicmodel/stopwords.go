// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topicmodel

// stopWords are dropped before terms are counted.
var stopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can", "could", "did", "do", "does",
	"doing", "down", "during", "each", "either", "et", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"him", "his", "how", "however", "i", "if", "in", "into", "is", "it", "its",
	"itself", "may", "me", "might", "more", "most", "must", "my", "no", "nor",
	"not", "of", "off", "on", "once", "only", "or", "other", "our", "ours", "out",
	"over", "own", "same", "she", "should", "so", "some", "such", "than", "that",
	"the", "their", "theirs", "them", "then", "there", "these", "they", "this",
	"those", "through", "thus", "to", "too", "under", "until", "up", "us", "using",
	"very", "via", "was", "we", "were", "what", "when", "where", "whether",
	"which", "while", "who", "whom", "why", "will", "with", "within", "without",
	"would", "you", "your", "yours",
}
